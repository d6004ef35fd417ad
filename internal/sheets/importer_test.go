package sheets

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
)

func newTestImporter() *Importer {
	return NewImporter(logger.NewNop())
}

func hasMessage(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestImportExtraColumns(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}
	carol := model.Legislator{ID: uuid.New(), Name: "Carol"}

	cells := [][]string{
		{"", "Name", "Notes"},
		{"", "Alice", "called twice"},
	}
	snap := newTestImporter().Import(cells, []model.Legislator{alice, carol})

	if len(snap.ExtraColumnTitles) != 1 || snap.ExtraColumnTitles[0] != "Notes" {
		t.Fatalf("ExtraColumnTitles = %q", snap.ExtraColumnTitles)
	}
	if got := snap.ValuesByLegislator[alice.ID]["Notes"]; got != "called twice" {
		t.Errorf("alice notes = %q", got)
	}
	if _, ok := snap.ValuesByLegislator[carol.ID]; ok {
		t.Error("carol should have no values")
	}
	if !hasMessage(snap.Messages, "Copied column 'Notes' to new sheet") {
		t.Errorf("messages = %q", snap.Messages)
	}
	if !hasMessage(snap.Messages, "Could not find Carol under the Name column") {
		t.Errorf("messages = %q", snap.Messages)
	}
}

func TestImportEmptySheet(t *testing.T) {
	snap := newTestImporter().Import(nil, []model.Legislator{{ID: uuid.New(), Name: "Alice"}})
	if len(snap.Messages) != 1 || snap.Messages[0] != "Old spreadsheet was empty" {
		t.Errorf("messages = %q", snap.Messages)
	}
	if len(snap.ExtraColumnTitles) != 0 || len(snap.ValuesByLegislator) != 0 {
		t.Errorf("unexpected data %+v", snap)
	}
}

func TestImportWithoutNameColumn(t *testing.T) {
	cells := [][]string{
		{"Who", "Notes"},
		{"Alice", "hi"},
	}
	snap := newTestImporter().Import(cells, []model.Legislator{{ID: uuid.New(), Name: "Alice"}})
	if !hasMessage(snap.Messages, "Could not find a 'Name' column") {
		t.Errorf("messages = %q", snap.Messages)
	}
	if len(snap.ExtraColumnTitles) != 0 {
		t.Errorf("ExtraColumnTitles = %q", snap.ExtraColumnTitles)
	}
}

func TestImportNoExtraColumns(t *testing.T) {
	cells := [][]string{ColumnTitles, {"", "Alice"}}
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}
	snap := newTestImporter().Import(cells, []model.Legislator{alice})
	if !hasMessage(snap.Messages, "Did not find any extra columns") {
		t.Errorf("messages = %q", snap.Messages)
	}
	if _, ok := snap.ValuesByLegislator[alice.ID]; !ok {
		t.Error("alice row should still match")
	}
}

func TestImportMatchesLeadSponsorName(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}
	cells := [][]string{
		{"", "Name", "Notes"},
		{"", "Alice (lead)", "champion"},
	}
	snap := newTestImporter().Import(cells, []model.Legislator{alice})
	if got := snap.ValuesByLegislator[alice.ID]["Notes"]; got != "champion" {
		t.Errorf("alice notes = %q", got)
	}
}

func TestImportShortRows(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}
	bob := model.Legislator{ID: uuid.New(), Name: "Bob"}
	cells := [][]string{
		{"", "Name", "Email", "Notes", "Called"},
		{},
		{""},
		{"", "Alice", "", "hi"},
		{"", "Bob"},
	}
	snap := newTestImporter().Import(cells, []model.Legislator{alice, bob})

	if got := strings.Join(snap.ExtraColumnTitles, ","); got != "Notes,Called" {
		t.Fatalf("ExtraColumnTitles = %q", got)
	}
	a := snap.ValuesByLegislator[alice.ID]
	if a["Notes"] != "hi" || a["Called"] != "" {
		t.Errorf("alice = %v", a)
	}
	b, ok := snap.ValuesByLegislator[bob.ID]
	if !ok || b["Notes"] != "" {
		t.Errorf("bob = %v, %v", b, ok)
	}
}

func TestImportUsesLastNameColumn(t *testing.T) {
	alice := model.Legislator{ID: uuid.New(), Name: "Alice"}

	cells := [][]string{
		{"Name", "Name", "Notes"},
		{"stale copy", "Alice", "left voicemail"},
	}
	snap := newTestImporter().Import(cells, []model.Legislator{alice})

	if got := snap.ValuesByLegislator[alice.ID]["Notes"]; got != "left voicemail" {
		t.Errorf("alice notes = %q, values = %v", got, snap.ValuesByLegislator)
	}
	if len(snap.ExtraColumnTitles) != 1 || snap.ExtraColumnTitles[0] != "Notes" {
		t.Errorf("ExtraColumnTitles = %q", snap.ExtraColumnTitles)
	}
}
