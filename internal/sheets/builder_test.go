package sheets

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/twitter"
)

func newTestBuilder() *Builder {
	return NewBuilder(twitter.Links{}, logger.NewNop())
}

func rowTexts(r Row) []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

// sections splits the body of a document into its non-sponsor and sponsor rows
func sections(t *testing.T, doc *Document) (nonSponsors, sponsors []Row) {
	t.Helper()
	if len(doc.Rows) < 4 {
		t.Fatalf("document too short: %d rows", len(doc.Rows))
	}
	if got := doc.Rows[1][0].Text; got != nonSponsorsLabel {
		t.Fatalf("row 1 = %q, want %q", got, nonSponsorsLabel)
	}
	for i := 2; i < len(doc.Rows); i++ {
		if len(doc.Rows[i]) == 0 {
			if i+1 >= len(doc.Rows) || doc.Rows[i+1][0].Text != sponsorsLabel {
				t.Fatalf("blank row at %d not followed by %q", i, sponsorsLabel)
			}
			return doc.Rows[2:i], doc.Rows[i+2:]
		}
	}
	t.Fatal("no blank separator row")
	return nil, nil
}

func TestBuildSplitsSponsorsAndNonSponsors(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice", Borough: "Queens"}
	bob := model.Legislator{ID: uuid.New(), Name: "Bob", Borough: "Brooklyn"}
	bill := &model.Bill{Type: model.BillTypeCity, City: &model.CityBill{File: "Int 0001-2024"}}

	doc := newTestBuilder().Build(bill, "Power hour",
		[]model.Sponsorship{{LegislatorID: alice.ID, SponsorSequence: 0, Legislator: &alice}},
		[]model.Legislator{bob},
		nil)

	header := rowTexts(doc.Rows[0])
	if len(header) != len(ColumnTitles) || header[1] != ColumnName {
		t.Fatalf("header = %q", header)
	}
	for _, c := range doc.Rows[0] {
		if !c.Bold {
			t.Errorf("header cell %q not bold", c.Text)
		}
	}

	non, sp := sections(t, doc)
	if len(non) != 1 || non[0][1].Text != "Bob" {
		t.Errorf("non-sponsors = %v", non)
	}
	if len(sp) != 1 || sp[0][1].Text != "Alice (lead)" {
		t.Errorf("sponsors = %v", sp)
	}
	if doc.Title != "Power hour" {
		t.Errorf("Title = %q", doc.Title)
	}
}

func TestBuildOrdersNonSponsorsByBorough(t *testing.T) {
	people := []model.Legislator{
		{ID: uuid.New(), Name: "Zed", Borough: ""},
		{ID: uuid.New(), Name: "Yan", Borough: "Staten Island"},
		{ID: uuid.New(), Name: "Xi", Borough: "Atlantis"},
		{ID: uuid.New(), Name: "Bea", Borough: "Brooklyn"},
		{ID: uuid.New(), Name: "Abe", Borough: "Brooklyn"},
		{ID: uuid.New(), Name: "Max", Borough: "Manhattan"},
	}

	doc := newTestBuilder().Build(&model.Bill{}, "t", nil, people, nil)
	non, sp := sections(t, doc)
	if len(sp) != 0 {
		t.Errorf("unexpected sponsors %v", sp)
	}

	var names []string
	for _, r := range non {
		names = append(names, r[1].Text)
	}
	want := "Abe,Bea,Max,Yan,Xi,Zed"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestBuildLegislatorRow(t *testing.T) {
	l := model.Legislator{
		ID:      uuid.New(),
		Name:    "Alice",
		Email:   "alice@council.nyc.gov",
		Party:   "D",
		Borough: "Queens",
		Twitter: "alice",
		Contacts: []model.OfficeContact{
			{Type: model.OfficeContactDistrict, Phone: "718-555-0100"},
			{Type: model.OfficeContactCentral, Phone: "212-555-0100"},
			{Type: model.OfficeContactDistrict, Phone: "718-555-0101"},
		},
		Staffers: []model.Staffer{
			{Name: "Sam", Title: "Chief of Staff", Email: "sam@council.nyc.gov", Twitter: "sam",
				Contacts: []model.OfficeContact{{Type: model.OfficeContactOther, Phone: "212-555-0199"}}},
			{Name: "Pat"},
		},
	}
	bill := &model.Bill{TwitterSearchTerms: []string{"bikes"}}

	doc := newTestBuilder().Build(bill, "t", nil, []model.Legislator{l}, nil)
	non, _ := sections(t, doc)
	row := non[0]

	if len(row) != len(ColumnTitles) {
		t.Fatalf("row has %d cells, want %d", len(row), len(ColumnTitles))
	}
	if row[5].Text != "718-555-0100, 718-555-0101" {
		t.Errorf("district phones = %q", row[5].Text)
	}
	if row[6].Text != "212-555-0100" {
		t.Errorf("central phones = %q", row[6].Text)
	}
	if row[7].Text != "@alice" || row[7].LinkURL != "https://twitter.com/alice" {
		t.Errorf("twitter cell = %+v", row[7])
	}
	if row[8].Text != relevantTweetsLabel || !strings.HasPrefix(row[8].LinkURL, "https://twitter.com/search") {
		t.Errorf("search cell = %+v", row[8])
	}
	want := "Chief of Staff - Sam (212-555-0199, sam@council.nyc.gov, @sam)\n\nPat (No contact info)"
	if row[9].Text != want {
		t.Errorf("staffers = %q, want %q", row[9].Text, want)
	}
}

func TestBuildWithoutTwitterHasNoSearchLink(t *testing.T) {
	l := model.Legislator{ID: uuid.New(), Name: "Alice"}
	doc := newTestBuilder().Build(&model.Bill{}, "t", nil, []model.Legislator{l}, nil)
	non, _ := sections(t, doc)
	if c := non[0][8]; c.Text != "" || c.LinkURL != "" {
		t.Errorf("search cell = %+v", c)
	}
	if c := non[0][7]; c.Text != "" || c.LinkURL != "" {
		t.Errorf("twitter cell = %+v", c)
	}
}

func TestBuildAppendsExtraColumns(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}
	bob := model.Legislator{ID: uuid.New(), Name: "Bob"}
	snapshot := &ImportSnapshot{
		ExtraColumnTitles: []string{"Notes", "Called"},
		ValuesByLegislator: map[uuid.UUID]map[string]string{
			alice.ID: {"Notes": "called twice", "Called": "yes"},
		},
	}

	doc := newTestBuilder().Build(&model.Bill{}, "t",
		[]model.Sponsorship{{SponsorSequence: 1, Legislator: &alice}},
		[]model.Legislator{bob}, snapshot)

	header := rowTexts(doc.Rows[0])
	if got := strings.Join(header[len(ColumnTitles):], ","); got != "Notes,Called" {
		t.Errorf("extra headers = %q", got)
	}

	non, sp := sections(t, doc)
	if got := rowTexts(sp[0])[len(ColumnTitles):]; got[0] != "called twice" || got[1] != "yes" {
		t.Errorf("alice extras = %q", got)
	}
	if sp[0][1].Text != "Alice" {
		t.Errorf("non-lead sponsor annotated: %q", sp[0][1].Text)
	}
	if got := rowTexts(non[0])[len(ColumnTitles):]; len(got) != 2 || got[0] != "" || got[1] != "" {
		t.Errorf("bob extras = %q, want two blanks", got)
	}
}

func TestBuildLayout(t *testing.T) {
	doc := newTestBuilder().Build(&model.Bill{}, "t", nil, nil, nil)
	if doc.FrozenRowCount != 1 {
		t.Errorf("FrozenRowCount = %d", doc.FrozenRowCount)
	}
	if len(doc.ColumnWidths) != len(ColumnTitles) {
		t.Errorf("%d widths for %d columns", len(doc.ColumnWidths), len(ColumnTitles))
	}
	if doc.ColumnWidths[2] != 200 || doc.ColumnWidths[3] != 50 {
		t.Errorf("widths = %v", doc.ColumnWidths)
	}
}

func TestBoroughRank(t *testing.T) {
	tests := []struct {
		borough string
		want    int
	}{
		{"Brooklyn", 0},
		{"Manhattan", 1},
		{"Manhattan and Bronx", 2},
		{"Queens", 3},
		{"Bronx", 4},
		{"Staten Island", 5},
		{"Hoboken", 6},
		{"", 7},
	}
	for _, tt := range tests {
		if got := BoroughRank(tt.borough); got != tt.want {
			t.Errorf("BoroughRank(%q) = %d, want %d", tt.borough, got, tt.want)
		}
	}
}
