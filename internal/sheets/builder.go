package sheets

import (
	"fmt"
	"strings"

	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
)

// LinkBuilder produces the social media links shown in a sheet
type LinkBuilder interface {
	ProfileURL(handle string) string
	BillSearchURL(bill *model.Bill, l *model.Legislator) string
}

// Builder converts bill sponsorship data into a phone bank Document
type Builder struct {
	links LinkBuilder
	log   *logger.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(links LinkBuilder, log *logger.Logger) *Builder {
	return &Builder{links: links, log: log.With("component", "sheet_builder")}
}

// Build lays out the sheet: headers, non-sponsors sorted by borough then name,
// a blank row, then sponsors in the order given. snapshot may be nil.
func (b *Builder) Build(bill *model.Bill, title string, sponsors []model.Sponsorship, nonSponsors []model.Legislator, snapshot *ImportSnapshot) *Document {
	var extraTitles []string
	if snapshot != nil {
		extraTitles = snapshot.ExtraColumnTitles
	}

	headers := append(append([]string{}, ColumnTitles...), extraTitles...)
	rows := []Row{
		titleRow(headers...),
		titleRow(nonSponsorsLabel),
	}

	for _, l := range SortByBorough(nonSponsors) {
		l := l
		rows = append(rows, b.legislatorRow(bill, &l, false, snapshot))
	}

	rows = append(rows, titleRow(), titleRow(sponsorsLabel))

	for _, sp := range sponsors {
		if sp.Legislator == nil {
			b.log.Warn("Sponsorship without legislator data, skipping", "bill_id", sp.BillID, "legislator_id", sp.LegislatorID)
			continue
		}
		rows = append(rows, b.legislatorRow(bill, sp.Legislator, sp.IsLead(), snapshot))
	}

	return &Document{
		Title:          title,
		Rows:           rows,
		ColumnWidths:   append([]int(nil), ColumnWidths...),
		FrozenRowCount: 1,
	}
}

func (b *Builder) legislatorRow(bill *model.Bill, l *model.Legislator, lead bool, snapshot *ImportSnapshot) Row {
	searchURL := b.links.BillSearchURL(bill, l)
	searchLabel := ""
	if searchURL != "" {
		searchLabel = relevantTweetsLabel
	}

	row := Row{
		{Text: ""},
		{Text: SponsorName(l.Name, lead)},
		{Text: l.Email},
		{Text: l.Party},
		{Text: l.Borough},
		{Text: strings.Join(l.Phones(model.OfficeContactDistrict), ", ")},
		{Text: strings.Join(l.Phones(model.OfficeContactCentral), ", ")},
		{Text: l.DisplayTwitter(), LinkURL: b.links.ProfileURL(l.Twitter)},
		{Text: searchLabel, LinkURL: searchURL},
		{Text: stafferText(l.Staffers)},
	}

	if snapshot == nil {
		return row
	}

	values, ok := snapshot.ValuesByLegislator[l.ID]
	if !ok {
		b.log.Warn("No legislator data in import data", "legislator", l.Name)
	}
	for _, column := range snapshot.ExtraColumnTitles {
		row = append(row, Cell{Text: values[column]})
	}
	return row
}

func titleRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Cell{Text: v, Bold: true}
	}
	return row
}

// stafferText renders one paragraph per staffer
func stafferText(staffers []model.Staffer) string {
	parts := make([]string, len(staffers))
	for i := range staffers {
		parts[i] = stafferLine(&staffers[i])
	}
	return strings.Join(parts, "\n\n")
}

func stafferLine(s *model.Staffer) string {
	var methods []string
	for _, c := range s.Contacts {
		if c.Phone != "" {
			methods = append(methods, c.Phone)
		}
	}
	for _, m := range []string{s.Email, s.DisplayTwitter()} {
		if m != "" {
			methods = append(methods, m)
		}
	}

	contact := strings.Join(methods, ", ")
	if contact == "" {
		contact = noContactPlaceholder
	}

	prefix := ""
	if s.Title != "" {
		prefix = s.Title + " - "
	}
	return fmt.Sprintf("%s%s (%s)", prefix, s.Name, contact)
}
