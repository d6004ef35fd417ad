package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/staticdata"
	"github.com/jjenkins/billtracker/internal/store"
)

type fakeCouncilAPI struct {
	members  []model.CouncilMemberRecord
	persons  map[int]*model.CouncilPersonDetail
	bills    map[int]*model.UpstreamCityBill
	sponsors map[int][]model.FetchedSponsor
}

func (f *fakeCouncilAPI) FetchCurrentMembers(context.Context) ([]model.CouncilMemberRecord, error) {
	return f.members, nil
}

func (f *fakeCouncilAPI) FetchPerson(_ context.Context, id int) (*model.CouncilPersonDetail, error) {
	if p, ok := f.persons[id]; ok {
		return p, nil
	}
	return nil, apperr.New(apperr.KindTransient, nil, "unexpected status code: 500")
}

func (f *fakeCouncilAPI) FetchBill(_ context.Context, id int) (*model.UpstreamCityBill, error) {
	if b, ok := f.bills[id]; ok {
		return b, nil
	}
	return nil, apperr.NotFound("matter %d not found", id)
}

func (f *fakeCouncilAPI) FetchBillSponsors(_ context.Context, id int, _ string) ([]model.FetchedSponsor, error) {
	return f.sponsors[id], nil
}

func TestJobLookup(t *testing.T) {
	s := NewCouncilSync(&fakeCouncilAPI{}, nil, logger.NewNop())

	var names []string
	for _, j := range s.Jobs() {
		names = append(names, j.Name)
	}
	want := []string{JobCouncilMembers, JobCouncilPersonData, JobCouncilStaticData, JobBillUpdates, JobSponsorships}
	if len(names) != len(want) {
		t.Fatalf("jobs = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("job %d = %s, want %s", i, names[i], want[i])
		}
	}

	if j, err := s.Job(JobSponsorships); err != nil || j.Name != JobSponsorships {
		t.Errorf("Job(%q) = %+v, %v", JobSponsorships, j, err)
	}
	if _, err := s.Job("nightly"); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unknown job err = %v", err)
	}
}

func syncTestTx(t *testing.T) store.UnitOfWork {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("set TEST_DATABASE_URL to run sync integration tests")
	}
	db, err := store.NewDB(dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })
	if err := store.ApplySchema(ctx, tx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return tx
}

func TestCouncilSyncJobs(t *testing.T) {
	tx := syncTestTx(t)
	ctx := context.Background()
	repos := store.NewRepos(tx)

	const alice, bob, matter = 990001, 990002, 990100
	api := &fakeCouncilAPI{
		members: []model.CouncilMemberRecord{
			{CouncilPersonID: alice, FullName: "Alice Adams"},
			{CouncilPersonID: bob, FullName: "Bob Brown"},
		},
		persons: map[int]*model.CouncilPersonDetail{
			alice: {CouncilPersonID: alice, Email: "aadams@council.nyc.gov", CentralPhone: "212-555-0101", DistrictPhone: "718-555-0102"},
		},
		bills: map[int]*model.UpstreamCityBill{
			matter: {Name: "Renamed upstream", City: model.CityBill{CityBillID: matter, File: "Int 0990-2024", Status: "Committee", ActiveVersion: "A"}},
		},
		sponsors: map[int][]model.FetchedSponsor{
			matter: {{CouncilPersonID: bob, Sequence: 0}, {CouncilPersonID: alice, Sequence: 1}},
		},
	}
	static, err := staticdata.Parse([]byte(`
990001:
  name: Alice Adams
  party: Democrat
  borough: Queens
  twitter: aliceadams
`))
	if err != nil {
		t.Fatal(err)
	}
	s := NewCouncilSync(api, static, logger.NewNop())

	bill := &model.Bill{Type: model.BillTypeCity, Name: "Original", City: &model.CityBill{CityBillID: matter, File: "Int 0990-2024", ActiveVersion: "A"}}
	if err := repos.Bills.Create(ctx, bill); err != nil {
		t.Fatal(err)
	}

	for _, job := range s.Jobs() {
		if _, err := job.Run(ctx, tx); err != nil {
			t.Fatalf("%s: %v", job.Name, err)
		}
	}

	found, err := repos.Legislators.GetByCouncilPersonID(ctx, alice)
	if err != nil || found == nil {
		t.Fatalf("alice: %v", err)
	}
	a, err := repos.Legislators.GetCouncilMember(ctx, found.ID)
	if err != nil || a == nil {
		t.Fatalf("alice details: %v", err)
	}
	if a.Email != "aadams@council.nyc.gov" || a.Borough != "Queens" || a.Twitter != "aliceadams" {
		t.Errorf("alice = %+v", a)
	}
	if got := a.Phones(model.OfficeContactDistrict); len(got) != 1 || got[0] != "718-555-0102" {
		t.Errorf("alice district phones = %v", got)
	}

	updated, err := repos.Bills.GetByID(ctx, bill.ID)
	if err != nil || updated == nil {
		t.Fatalf("bill: %v", err)
	}
	if updated.Name != "Renamed upstream" || updated.City.Status != "Committee" {
		t.Errorf("bill = %+v / %+v", updated, updated.City)
	}

	sponsorships, err := repos.Sponsorships.ListForBill(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sponsorships) != 2 || sponsorships[0].CouncilPersonID != bob || !sponsorships[0].IsLead() {
		t.Fatalf("sponsorships = %+v", sponsorships)
	}
	for _, sp := range sponsorships {
		if !sp.AddedAt.Valid || time.Since(sp.AddedAt.Time) > time.Hour {
			t.Errorf("sponsorship %d added_at = %+v", sp.CouncilPersonID, sp.AddedAt)
		}
	}
}
