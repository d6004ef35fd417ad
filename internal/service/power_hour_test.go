package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
	"github.com/jjenkins/billtracker/internal/twitter"
)

type fakeDocs struct {
	created  []*sheets.Document
	cells    [][]string
	getErr   error
	shared   []string
	shareErr error
}

func (f *fakeDocs) CreateSpreadsheet(_ context.Context, doc *sheets.Document) (*model.SpreadsheetRef, error) {
	f.created = append(f.created, doc)
	return &model.SpreadsheetRef{ID: "sheet-1", URL: "https://docs.google.com/spreadsheets/d/sheet-1"}, nil
}

func (f *fakeDocs) GetSpreadsheetCells(context.Context, string) ([][]string, error) {
	return f.cells, f.getErr
}

func (f *fakeDocs) GrantPublicEdit(_ context.Context, id string) error {
	f.shared = append(f.shared, id)
	return f.shareErr
}

type fakePowerHourData struct {
	bill         *model.Bill
	sponsorships []model.Sponsorship
	legislators  []model.Legislator
}

func (f *fakePowerHourData) GetByID(context.Context, uuid.UUID) (*model.Bill, error) {
	return f.bill, nil
}

func (f *fakePowerHourData) ListForBill(context.Context, uuid.UUID) ([]model.Sponsorship, error) {
	return f.sponsorships, nil
}

func (f *fakePowerHourData) ListCouncilMembers(context.Context) ([]model.Legislator, error) {
	return f.legislators, nil
}

func (f *fakePowerHourData) source() PowerHourSource {
	return PowerHourSource{Bills: f, Sponsorships: f, Legislators: f}
}

func newPowerHourFixture() (*PowerHourService, *fakeDocs, *fakePowerHourData) {
	alice := model.Legislator{ID: uuid.New(), CouncilPersonID: 1, Name: "Alice", Borough: "Brooklyn"}
	bob := model.Legislator{ID: uuid.New(), CouncilPersonID: 2, Name: "Bob", Borough: "Queens"}
	cara := model.Legislator{ID: uuid.New(), CouncilPersonID: 3, Name: "Cara", Borough: "Bronx"}
	bill := cityBill()

	data := &fakePowerHourData{
		bill: bill,
		sponsorships: []model.Sponsorship{
			{BillID: bill.ID, LegislatorID: cara.ID, SponsorSequence: 1},
			{BillID: bill.ID, LegislatorID: alice.ID, SponsorSequence: 0},
		},
		legislators: []model.Legislator{alice, bob, cara},
	}
	docs := &fakeDocs{}
	log := logger.NewNop()
	svc := NewPowerHourService(docs, docs, sheets.NewBuilder(twitter.Links{}, log), sheets.NewImporter(log), log)
	return svc, docs, data
}

func TestGeneratePowerHour(t *testing.T) {
	svc, docs, data := newPowerHourFixture()

	res, err := svc.Generate(context.Background(), data.source(), PowerHourRequest{BillID: data.bill.ID, Title: " Week 1 "})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(docs.created) != 1 || docs.created[0].Title != "Week 1" {
		t.Fatalf("created = %+v", docs.created)
	}
	if len(docs.shared) != 1 || docs.shared[0] != "sheet-1" {
		t.Errorf("shared = %v", docs.shared)
	}
	if len(res.Messages) != 1 || res.Messages[0] != "Spreadsheet was created" {
		t.Errorf("messages = %q", res.Messages)
	}
	ph := res.PowerHour
	if ph.BillID != data.bill.ID || ph.SpreadsheetID != "sheet-1" || ph.Title != "Week 1" || ph.ID == uuid.Nil {
		t.Errorf("power hour = %+v", ph)
	}

	// Rows: header, NON-SPONSORS, Bob, blank, SPONSORS, Alice (lead), Cara
	rows := docs.created[0].Rows
	if len(rows) != 7 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[2][1].Text != "Bob" || rows[5][1].Text != "Alice (lead)" || rows[6][1].Text != "Cara" {
		t.Errorf("names = %q, %q, %q", rows[2][1].Text, rows[5][1].Text, rows[6][1].Text)
	}
}

func TestGeneratePowerHourImportsPreviousSheet(t *testing.T) {
	svc, docs, data := newPowerHourFixture()
	docs.cells = [][]string{
		{"", "Name", "Notes"},
		{"", "Alice (lead)", "called twice"},
		{"", "Bob", "voicemail"},
	}

	res, err := svc.Generate(context.Background(), data.source(), PowerHourRequest{
		BillID: data.bill.ID, Title: "Week 2", PreviousSpreadsheetID: "old-sheet",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	msgs := res.Messages
	if msgs[len(msgs)-1] != "Spreadsheet was created" {
		t.Errorf("last message = %q", msgs[len(msgs)-1])
	}
	if !containsString(msgs, "Copied column 'Notes' to new sheet") {
		t.Errorf("messages = %q", msgs)
	}
	if !containsPrefix(msgs, "Could not find Cara") {
		t.Errorf("messages = %q", msgs)
	}

	header := docs.created[0].Rows[0]
	if header[len(header)-1].Text != "Notes" {
		t.Errorf("last header = %q", header[len(header)-1].Text)
	}
	alice := docs.created[0].Rows[5]
	if alice[len(alice)-1].Text != "called twice" {
		t.Errorf("alice notes = %q", alice[len(alice)-1].Text)
	}
}

func TestGeneratePowerHourImportFailureCreatesNothing(t *testing.T) {
	svc, docs, data := newPowerHourFixture()
	docs.getErr = apperr.Upstream(errors.New("403"), "failed to get spreadsheet")

	_, err := svc.Generate(context.Background(), data.source(), PowerHourRequest{
		BillID: data.bill.ID, Title: "Week 2", PreviousSpreadsheetID: "old-sheet",
	})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Errorf("err = %v", err)
	}
	if len(docs.created) != 0 || len(docs.shared) != 0 {
		t.Error("spreadsheet created despite import failure")
	}
}

func TestGeneratePowerHourShareFailure(t *testing.T) {
	svc, docs, data := newPowerHourFixture()
	docs.shareErr = apperr.Upstream(errors.New("500"), "failed to share")

	if _, err := svc.Generate(context.Background(), data.source(), PowerHourRequest{BillID: data.bill.ID, Title: "t"}); err == nil {
		t.Error("expected error")
	}
}

func TestGeneratePowerHourValidation(t *testing.T) {
	svc, _, data := newPowerHourFixture()

	_, err := svc.Generate(context.Background(), data.source(), PowerHourRequest{BillID: data.bill.ID, Title: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank title: err = %v", err)
	}

	data.bill = nil
	_, err = svc.Generate(context.Background(), data.source(), PowerHourRequest{BillID: uuid.New(), Title: "t"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing bill: err = %v", err)
	}
}

func TestBuildSponsorshipView(t *testing.T) {
	_, _, data := newPowerHourFixture()
	view := BuildSponsorshipView(data.sponsorships, data.legislators)

	if view.LeadSponsor == nil || view.LeadSponsor.Legislator.Name != "Alice" {
		t.Fatalf("lead = %+v", view.LeadSponsor)
	}
	if len(view.Cosponsors) != 1 || view.Cosponsors[0].Legislator.Name != "Cara" {
		t.Errorf("cosponsors = %+v", view.Cosponsors)
	}
	if len(view.NonSponsors) != 1 || view.NonSponsors[0].Name != "Bob" {
		t.Errorf("non-sponsors = %+v", view.NonSponsors)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPrefix(list []string, prefix string) bool {
	for _, v := range list {
		if len(v) >= len(prefix) && v[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
