package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
)

// fakeSponsorships is an in-memory SponsorshipRepo and LegislatorFinder
type fakeSponsorships struct {
	legislators map[int]model.Legislator
	rows        map[uuid.UUID]model.Sponsorship // keyed by legislator id
	inserts     int
	updates     int
	deletes     int
}

func newFakeSponsorships(legislators ...model.Legislator) *fakeSponsorships {
	f := &fakeSponsorships{
		legislators: make(map[int]model.Legislator),
		rows:        make(map[uuid.UUID]model.Sponsorship),
	}
	for _, l := range legislators {
		f.legislators[l.CouncilPersonID] = l
	}
	return f
}

func (f *fakeSponsorships) FindByCouncilPersonIDs(_ context.Context, ids []int) ([]model.Legislator, error) {
	var out []model.Legislator
	for _, id := range ids {
		if l, ok := f.legislators[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSponsorships) ListForBill(_ context.Context, _ uuid.UUID) ([]model.Sponsorship, error) {
	var out []model.Sponsorship
	for _, sp := range f.rows {
		out = append(out, sp)
	}
	return out, nil
}

func (f *fakeSponsorships) Insert(_ context.Context, sp *model.Sponsorship) error {
	if _, ok := f.rows[sp.LegislatorID]; ok {
		return apperr.Conflict("duplicate")
	}
	f.inserts++
	f.rows[sp.LegislatorID] = *sp
	return nil
}

func (f *fakeSponsorships) UpdateSequence(_ context.Context, _, legislatorID uuid.UUID, sequence int) error {
	sp, ok := f.rows[legislatorID]
	if !ok {
		return apperr.NotFound("missing")
	}
	f.updates++
	sp.SponsorSequence = sequence
	f.rows[legislatorID] = sp
	return nil
}

func (f *fakeSponsorships) Delete(_ context.Context, _, legislatorID uuid.UUID) error {
	f.deletes++
	delete(f.rows, legislatorID)
	return nil
}

type fakeFetcher struct {
	sponsors []model.FetchedSponsor
	err      error
}

func (f *fakeFetcher) FetchBillSponsors(context.Context, int, string) ([]model.FetchedSponsor, error) {
	return f.sponsors, f.err
}

func legislator(councilPersonID int, name string) model.Legislator {
	return model.Legislator{ID: uuid.New(), CouncilPersonID: councilPersonID, Name: name}
}

func cityBill() *model.Bill {
	return &model.Bill{ID: uuid.New(), Type: model.BillTypeCity, City: &model.CityBill{CityBillID: 42, File: "Int 0001-2024"}}
}

func TestReconcile(t *testing.T) {
	billID := uuid.New()
	alice, bob, carol := legislator(1, "Alice"), legislator(2, "Bob"), legislator(3, "Carol")
	known := map[int]model.Legislator{1: alice, 2: bob, 3: carol}
	stamp := sql.NullTime{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Valid: true}
	old := sql.NullTime{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}

	current := []model.Sponsorship{
		{BillID: billID, LegislatorID: alice.ID, CouncilPersonID: 1, SponsorSequence: 0, AddedAt: old},
		{BillID: billID, LegislatorID: bob.ID, CouncilPersonID: 2, SponsorSequence: 1},
	}
	fetched := []model.FetchedSponsor{
		{CouncilPersonID: 1, Sequence: 1},
		{CouncilPersonID: 3, Sequence: 0},
		{CouncilPersonID: 99, Sequence: 2},
	}

	plan := Reconcile(billID, current, fetched, known, stamp)

	if len(plan.Add) != 1 || plan.Add[0].LegislatorID != carol.ID || plan.Add[0].AddedAt != stamp {
		t.Errorf("Add = %+v", plan.Add)
	}
	if len(plan.Update) != 1 || plan.Update[0].LegislatorID != alice.ID || plan.Update[0].SponsorSequence != 1 {
		t.Errorf("Update = %+v", plan.Update)
	}
	if plan.Update[0].AddedAt != old {
		t.Errorf("update changed added_at to %v", plan.Update[0].AddedAt)
	}
	if len(plan.Remove) != 1 || plan.Remove[0].LegislatorID != bob.ID {
		t.Errorf("Remove = %+v", plan.Remove)
	}
	if len(plan.Unknown) != 1 || plan.Unknown[0] != 99 {
		t.Errorf("Unknown = %v", plan.Unknown)
	}
}

func TestReconcileDuplicateFetchedIDs(t *testing.T) {
	alice := legislator(1, "Alice")
	plan := Reconcile(uuid.New(), nil, []model.FetchedSponsor{
		{CouncilPersonID: 1, Sequence: 0},
		{CouncilPersonID: 1, Sequence: 3},
	}, map[int]model.Legislator{1: alice}, sql.NullTime{})

	if len(plan.Add) != 1 || plan.Add[0].SponsorSequence != 0 {
		t.Errorf("Add = %+v", plan.Add)
	}
}

func TestSponsorshipSyncIsIdempotent(t *testing.T) {
	alice, bob := legislator(1, "Alice"), legislator(2, "Bob")
	repo := newFakeSponsorships(alice, bob)
	fetcher := &fakeFetcher{sponsors: []model.FetchedSponsor{
		{CouncilPersonID: 1, Sequence: 0},
		{CouncilPersonID: 2, Sequence: 1},
		{CouncilPersonID: 77, Sequence: 2},
	}}
	syncer := NewSponsorshipSyncer(fetcher, logger.NewNop())
	bill := cityBill()

	first, err := syncer.Sync(context.Background(), repo, repo, bill, false)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if len(first.Add) != 2 || len(repo.rows) != 2 {
		t.Fatalf("first sync added %d, stored %d", len(first.Add), len(repo.rows))
	}
	for _, sp := range repo.rows {
		if sp.AddedAt.Valid {
			t.Errorf("baseline sync stamped %v", sp.AddedAt)
		}
		if sp.CouncilPersonID == 77 {
			t.Error("unknown legislator was stored")
		}
	}

	second, err := syncer.Sync(context.Background(), repo, repo, bill, true)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !second.Empty() {
		t.Errorf("second sync not empty: %+v", second)
	}
	if repo.inserts != 2 || repo.updates != 0 || repo.deletes != 0 {
		t.Errorf("inserts=%d updates=%d deletes=%d", repo.inserts, repo.updates, repo.deletes)
	}
}

func TestSponsorshipSyncPreservesAddedAt(t *testing.T) {
	alice, bob := legislator(1, "Alice"), legislator(2, "Bob")
	repo := newFakeSponsorships(alice, bob)
	bill := cityBill()
	old := sql.NullTime{Time: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	repo.rows[alice.ID] = model.Sponsorship{BillID: bill.ID, LegislatorID: alice.ID, CouncilPersonID: 1, SponsorSequence: 0, AddedAt: old}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, setAddedAt := range []bool{true, false} {
		fetcher := &fakeFetcher{sponsors: []model.FetchedSponsor{
			{CouncilPersonID: 2, Sequence: 0},
			{CouncilPersonID: 1, Sequence: 1},
		}}
		syncer := NewSponsorshipSyncer(fetcher, logger.NewNop())
		syncer.now = func() time.Time { return now }

		if _, err := syncer.Sync(context.Background(), repo, repo, bill, setAddedAt); err != nil {
			t.Fatalf("sync: %v", err)
		}
		if got := repo.rows[alice.ID]; got.AddedAt != old || got.SponsorSequence != 1 {
			t.Errorf("setAddedAt=%v: alice = %+v", setAddedAt, got)
		}
	}

	if got := repo.rows[bob.ID].AddedAt; !got.Valid || !got.Time.Equal(now) {
		t.Errorf("bob added_at = %v", got)
	}
}

func TestSponsorshipSyncRemovesRescinded(t *testing.T) {
	alice := legislator(1, "Alice")
	repo := newFakeSponsorships(alice)
	bill := cityBill()
	repo.rows[alice.ID] = model.Sponsorship{BillID: bill.ID, LegislatorID: alice.ID, CouncilPersonID: 1}

	syncer := NewSponsorshipSyncer(&fakeFetcher{}, logger.NewNop())
	plan, err := syncer.Sync(context.Background(), repo, repo, bill, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Remove) != 1 || len(repo.rows) != 0 {
		t.Errorf("remove=%d remaining=%d", len(plan.Remove), len(repo.rows))
	}
}

func TestSponsorshipSyncFetchError(t *testing.T) {
	repo := newFakeSponsorships()
	upstream := apperr.Transient(errors.New("boom"), "unexpected status code: 500")
	syncer := NewSponsorshipSyncer(&fakeFetcher{err: upstream}, logger.NewNop())

	_, err := syncer.Sync(context.Background(), repo, repo, cityBill(), true)
	if !apperr.Is(err, apperr.KindTransient) {
		t.Errorf("err = %v, want transient", err)
	}
}

func TestSponsorshipSyncRejectsStateBill(t *testing.T) {
	repo := newFakeSponsorships()
	syncer := NewSponsorshipSyncer(&fakeFetcher{}, logger.NewNop())
	bill := &model.Bill{ID: uuid.New(), Type: model.BillTypeState, State: &model.StateBill{}}
	if _, err := syncer.Sync(context.Background(), repo, repo, bill, true); err == nil {
		t.Error("expected error for state bill")
	}
}
