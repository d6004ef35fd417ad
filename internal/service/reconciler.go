package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
)

// SponsorFetcher reports who currently sponsors a city bill
type SponsorFetcher interface {
	FetchBillSponsors(ctx context.Context, cityBillID int, version string) ([]model.FetchedSponsor, error)
}

// LegislatorFinder looks up locally known legislators by external id
type LegislatorFinder interface {
	FindByCouncilPersonIDs(ctx context.Context, ids []int) ([]model.Legislator, error)
}

// SponsorshipRepo persists sponsorships
type SponsorshipRepo interface {
	ListForBill(ctx context.Context, billID uuid.UUID) ([]model.Sponsorship, error)
	Insert(ctx context.Context, sp *model.Sponsorship) error
	UpdateSequence(ctx context.Context, billID, legislatorID uuid.UUID, sequence int) error
	Delete(ctx context.Context, billID, legislatorID uuid.UUID) error
}

// ReconcilePlan is the set of writes that make local sponsorships match a fetch
type ReconcilePlan struct {
	Add    []model.Sponsorship
	Update []model.Sponsorship
	Remove []model.Sponsorship
	// Unknown holds fetched council person ids with no local legislator
	Unknown []int
}

// Empty reports whether the plan changes nothing
func (p *ReconcilePlan) Empty() bool {
	return len(p.Add) == 0 && len(p.Update) == 0 && len(p.Remove) == 0
}

// Reconcile diffs current sponsorships against fetched sponsors, keyed by
// external council person id. known maps council person id to local legislator.
// addedAt stamps new sponsorships only; existing ones keep their timestamp.
func Reconcile(billID uuid.UUID, current []model.Sponsorship, fetched []model.FetchedSponsor, known map[int]model.Legislator, addedAt sql.NullTime) *ReconcilePlan {
	plan := &ReconcilePlan{}

	remaining := make(map[int]model.Sponsorship, len(current))
	for _, sp := range current {
		remaining[sp.CouncilPersonID] = sp
	}

	seen := make(map[int]bool, len(fetched))
	for _, f := range fetched {
		if seen[f.CouncilPersonID] {
			continue
		}
		seen[f.CouncilPersonID] = true

		legislator, ok := known[f.CouncilPersonID]
		if !ok {
			plan.Unknown = append(plan.Unknown, f.CouncilPersonID)
			continue
		}

		if existing, ok := remaining[f.CouncilPersonID]; ok {
			delete(remaining, f.CouncilPersonID)
			if existing.SponsorSequence != f.Sequence {
				existing.SponsorSequence = f.Sequence
				plan.Update = append(plan.Update, existing)
			}
			continue
		}

		plan.Add = append(plan.Add, model.Sponsorship{
			BillID:          billID,
			LegislatorID:    legislator.ID,
			CouncilPersonID: f.CouncilPersonID,
			SponsorSequence: f.Sequence,
			AddedAt:         addedAt,
		})
	}

	// What is left was rescinded upstream. Walk current to keep a stable order.
	for _, sp := range current {
		if _, ok := remaining[sp.CouncilPersonID]; ok {
			plan.Remove = append(plan.Remove, sp)
		}
	}

	return plan
}

// SponsorshipSyncer refreshes a city bill's sponsorships from the council API
type SponsorshipSyncer struct {
	fetcher SponsorFetcher
	log     *logger.Logger
	now     func() time.Time
}

// NewSponsorshipSyncer creates a new SponsorshipSyncer
func NewSponsorshipSyncer(fetcher SponsorFetcher, log *logger.Logger) *SponsorshipSyncer {
	return &SponsorshipSyncer{
		fetcher: fetcher,
		log:     log.With("component", "sponsorship_syncer"),
		now:     time.Now,
	}
}

// Sync fetches the bill's sponsors and applies the reconcile plan through
// sponsorships. When setAddedAt is false new rows carry no timestamp, which
// marks them as part of a baseline rather than a newly signed-on sponsor.
func (s *SponsorshipSyncer) Sync(ctx context.Context, sponsorships SponsorshipRepo, legislators LegislatorFinder, bill *model.Bill, setAddedAt bool) (*ReconcilePlan, error) {
	if bill.City == nil {
		return nil, fmt.Errorf("bill %s is not a city bill", bill.ID)
	}
	cb := bill.City
	log := s.log.With("city_bill_id", cb.CityBillID, "file", cb.File)
	log.Info("Updating sponsorships")

	fetched, err := s.fetcher.FetchBillSponsors(ctx, cb.CityBillID, cb.ActiveVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sponsors: %w", err)
	}

	ids := make([]int, len(fetched))
	for i, f := range fetched {
		ids[i] = f.CouncilPersonID
	}
	found, err := legislators.FindByCouncilPersonIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sponsors: %w", err)
	}
	known := make(map[int]model.Legislator, len(found))
	for _, l := range found {
		known[l.CouncilPersonID] = l
	}

	current, err := sponsorships.ListForBill(ctx, bill.ID)
	if err != nil {
		return nil, err
	}

	var addedAt sql.NullTime
	if setAddedAt {
		addedAt = sql.NullTime{Time: s.now().UTC(), Valid: true}
	}

	plan := Reconcile(bill.ID, current, fetched, known, addedAt)

	for _, id := range plan.Unknown {
		log.Warn("Did not find legislator in db, ignoring", "council_person_id", id)
	}
	for i := range plan.Add {
		sp := &plan.Add[i]
		log.Info("Adding new sponsorship", "legislator", known[sp.CouncilPersonID].Name)
		if err := sponsorships.Insert(ctx, sp); err != nil {
			return nil, err
		}
	}
	for _, sp := range plan.Update {
		if err := sponsorships.UpdateSequence(ctx, sp.BillID, sp.LegislatorID, sp.SponsorSequence); err != nil {
			return nil, err
		}
	}
	for _, sp := range plan.Remove {
		log.Info("Removing rescinded sponsorship", "council_person_id", sp.CouncilPersonID)
		if err := sponsorships.Delete(ctx, sp.BillID, sp.LegislatorID); err != nil {
			return nil, err
		}
	}

	return plan, nil
}
