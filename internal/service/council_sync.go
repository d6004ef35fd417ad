package service

import (
	"context"
	"fmt"

	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/staticdata"
	"github.com/jjenkins/billtracker/internal/store"
)

// Sync job names, in the order they run
const (
	JobCouncilMembers    = "council-members"
	JobCouncilPersonData = "council-person-data"
	JobCouncilStaticData = "council-static-data"
	JobBillUpdates       = "bill-updates"
	JobSponsorships      = "sponsorships"
)

// CouncilAPI is the subset of the council API the sync jobs use
type CouncilAPI interface {
	SponsorFetcher
	FetchCurrentMembers(ctx context.Context) ([]model.CouncilMemberRecord, error)
	FetchPerson(ctx context.Context, councilPersonID int) (*model.CouncilPersonDetail, error)
	FetchBill(ctx context.Context, cityBillID int) (*model.UpstreamCityBill, error)
}

// CouncilSync holds the scheduled jobs that mirror council data locally
type CouncilSync struct {
	api      CouncilAPI
	static   *staticdata.Dataset
	sponsors *SponsorshipSyncer
	log      *logger.Logger
}

// NewCouncilSync creates a new CouncilSync
func NewCouncilSync(api CouncilAPI, static *staticdata.Dataset, log *logger.Logger) *CouncilSync {
	return &CouncilSync{
		api:      api,
		static:   static,
		sponsors: NewSponsorshipSyncer(api, log),
		log:      log.With("component", "council_sync"),
	}
}

// Jobs returns every sync job in run order
func (s *CouncilSync) Jobs() []Job {
	return []Job{
		{Name: JobCouncilMembers, Run: s.SyncMembers},
		{Name: JobCouncilPersonData, Run: s.SyncPersonData},
		{Name: JobCouncilStaticData, Run: s.SyncStaticData},
		{Name: JobBillUpdates, Run: s.SyncBillUpdates},
		{Name: JobSponsorships, Run: s.SyncSponsorships},
	}
}

// Job returns the named job
func (s *CouncilSync) Job(name string) (Job, error) {
	for _, j := range s.Jobs() {
		if j.Name == name {
			return j, nil
		}
	}
	return Job{}, apperr.Validation("unknown job %q", name)
}

// SyncMembers adds or refreshes every current council member from their office record
func (s *CouncilSync) SyncMembers(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error) {
	repos := store.NewRepos(uow)
	stats := &SyncStats{}

	members, err := s.api.FetchCurrentMembers(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = len(members)
	s.log.Info("Fetched current council members", "count", len(members))

	for _, rec := range members {
		created, err := repos.Legislators.UpsertCouncilMember(ctx, rec)
		if err != nil {
			return stats, err
		}
		stats.Processed++
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

// SyncPersonData fills contact details from the person API. Upstream failures
// for one member are logged and that member is skipped.
func (s *CouncilSync) SyncPersonData(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error) {
	repos := store.NewRepos(uow)
	stats := &SyncStats{}

	members, err := repos.Legislators.ListCouncilMembers(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = len(members)

	for _, m := range members {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		detail, err := s.api.FetchPerson(ctx, m.CouncilPersonID)
		if err != nil {
			if apperr.Is(err, apperr.KindTransient) || apperr.Is(err, apperr.KindNotFound) {
				s.log.Warn("Could not get Person from API", "council_person_id", m.CouncilPersonID, "error", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}

		var contacts []model.OfficeContact
		if detail.CentralPhone != "" {
			contacts = append(contacts, model.OfficeContact{Type: model.OfficeContactCentral, Phone: detail.CentralPhone})
		}
		if detail.DistrictPhone != "" {
			contacts = append(contacts, model.OfficeContact{Type: model.OfficeContactDistrict, Phone: detail.DistrictPhone})
		}

		if err := repos.Legislators.UpdateContactDetails(ctx, m.ID, detail.Email, detail.Website, contacts); err != nil {
			return stats, err
		}
		stats.Processed++
		stats.Updated++
	}
	return stats, nil
}

// SyncStaticData overlays the cleaned reference dataset onto council members
func (s *CouncilSync) SyncStaticData(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error) {
	repos := store.NewRepos(uow)
	stats := &SyncStats{}

	members, err := repos.Legislators.ListCouncilMembers(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = len(members)

	inDB := make(map[int]bool, len(members))
	for _, m := range members {
		inDB[m.CouncilPersonID] = true

		entry, ok := s.static.Lookup(m.CouncilPersonID)
		if !ok {
			s.log.Warn("Found a legislator without static data", "council_person_id", m.CouncilPersonID, "name", m.Name)
			stats.Skipped++
			continue
		}
		if err := repos.Legislators.UpdateStaticData(ctx, m.ID, entry); err != nil {
			return stats, err
		}
		stats.Processed++
		stats.Updated++
	}

	var unmatched []string
	for _, id := range s.static.IDs() {
		if !inDB[id] {
			entry, _ := s.static.Lookup(id)
			unmatched = append(unmatched, fmt.Sprintf("%d %s", id, entry.Name))
		}
	}
	if len(unmatched) > 0 {
		s.log.Warn("Static data has some legislators not in the DB", "legislators", unmatched)
	}
	return stats, nil
}

// SyncBillUpdates refreshes the upstream-owned fields of every city bill
func (s *CouncilSync) SyncBillUpdates(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error) {
	repos := store.NewRepos(uow)
	stats := &SyncStats{}

	bills, err := repos.Bills.ListByType(ctx, model.BillTypeCity)
	if err != nil {
		return stats, err
	}
	stats.Total = len(bills)

	for i := range bills {
		bill := &bills[i]
		if bill.City == nil {
			stats.Skipped++
			continue
		}

		upstream, err := s.api.FetchBill(ctx, bill.City.CityBillID)
		if err != nil {
			if apperr.Is(err, apperr.KindTransient) || apperr.Is(err, apperr.KindNotFound) {
				s.log.Warn("Could not get bill from API", "city_bill_id", bill.City.CityBillID, "error", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}

		stats.Processed++
		changed := ApplyUpstreamCityBill(bill, upstream)
		if len(changed) == 0 {
			continue
		}
		s.log.Info("Updating bill", "city_bill_id", bill.City.CityBillID, "fields", changed)
		if err := repos.Bills.SaveUpstreamFields(ctx, bill); err != nil {
			return stats, err
		}
		stats.Updated++
	}
	return stats, nil
}

// SyncSponsorships reconciles every city bill's sponsors, stamping new ones.
// Each bill runs in a savepoint so one failure only discards that bill's writes.
func (s *CouncilSync) SyncSponsorships(ctx context.Context, uow store.UnitOfWork) (*SyncStats, error) {
	repos := store.NewRepos(uow)
	stats := &SyncStats{}

	bills, err := repos.Bills.ListByType(ctx, model.BillTypeCity)
	if err != nil {
		return stats, err
	}
	stats.Total = len(bills)

	for i := range bills {
		bill := &bills[i]
		if bill.City == nil {
			stats.Skipped++
			continue
		}

		var plan *ReconcilePlan
		err := store.WithSavepoint(ctx, uow, "bill_sponsorships", func() error {
			var err error
			plan, err = s.sponsors.Sync(ctx, repos.Sponsorships, repos.Legislators, bill, true)
			return err
		})
		if err != nil {
			s.log.Error("Exception while updating sponsorships", "city_bill_id", bill.City.CityBillID, "error", err)
			stats.Failed++
			continue
		}

		stats.Processed++
		if !plan.Empty() {
			stats.Updated++
		}
	}
	return stats, nil
}
