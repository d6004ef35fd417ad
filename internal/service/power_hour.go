package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
)

const msgSpreadsheetCreated = "Spreadsheet was created"

// DocumentService creates and reads spreadsheets
type DocumentService interface {
	CreateSpreadsheet(ctx context.Context, doc *sheets.Document) (*model.SpreadsheetRef, error)
	GetSpreadsheetCells(ctx context.Context, spreadsheetID string) ([][]string, error)
}

// PermissionService shares documents
type PermissionService interface {
	GrantPublicEdit(ctx context.Context, fileID string) error
}

// BillGetter loads a bill by id, returning nil when absent
type BillGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
}

// SponsorshipLister loads a bill's sponsorships in sponsor sequence order
type SponsorshipLister interface {
	ListForBill(ctx context.Context, billID uuid.UUID) ([]model.Sponsorship, error)
}

// LegislatorLister loads every council member with contacts and staff
type LegislatorLister interface {
	ListCouncilMembers(ctx context.Context) ([]model.Legislator, error)
}

// PowerHourSource is the unit-of-work scoped data a power hour is built from
type PowerHourSource struct {
	Bills        BillGetter
	Sponsorships SponsorshipLister
	Legislators  LegislatorLister
}

// PowerHourRequest describes a sheet to generate
type PowerHourRequest struct {
	BillID uuid.UUID
	Title  string
	// PreviousSpreadsheetID, when set, names a sheet whose extra columns are carried over
	PreviousSpreadsheetID string
}

// PowerHourResult is a created sheet, not yet persisted, and the messages for the user
type PowerHourResult struct {
	PowerHour *model.PowerHour
	Messages  []string
}

// PowerHourService generates phone bank spreadsheets
type PowerHourService struct {
	docs     DocumentService
	perms    PermissionService
	builder  *sheets.Builder
	importer *sheets.Importer
	log      *logger.Logger
	now      func() time.Time
}

// NewPowerHourService creates a new PowerHourService
func NewPowerHourService(docs DocumentService, perms PermissionService, builder *sheets.Builder, importer *sheets.Importer, log *logger.Logger) *PowerHourService {
	return &PowerHourService{
		docs:     docs,
		perms:    perms,
		builder:  builder,
		importer: importer,
		log:      log.With("component", "power_hour"),
		now:      time.Now,
	}
}

// Generate builds the sheet for a bill, creates it with the document service
// and opens it to public editing. A failure to read the previous sheet aborts
// before anything is created.
func (s *PowerHourService) Generate(ctx context.Context, src PowerHourSource, req PowerHourRequest) (*PowerHourResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	s.log.Info("Creating new power hour", "bill_id", req.BillID, "title", title, "import_from", req.PreviousSpreadsheetID)

	bill, err := src.Bills.GetByID(ctx, req.BillID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperr.NotFound("bill %s not found", req.BillID)
	}

	sponsorships, err := src.Sponsorships.ListForBill(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	legislators, err := src.Legislators.ListCouncilMembers(ctx)
	if err != nil {
		return nil, err
	}

	sponsors, nonSponsors := partitionSponsors(sponsorships, legislators)

	var snapshot *sheets.ImportSnapshot
	if req.PreviousSpreadsheetID != "" {
		cells, err := s.docs.GetSpreadsheetCells(ctx, req.PreviousSpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("failed to read previous spreadsheet %s: %w", req.PreviousSpreadsheetID, err)
		}
		snapshot = s.importer.Import(cells, legislators)
	}

	doc := s.builder.Build(bill, title, sponsors, nonSponsors, snapshot)

	ref, err := s.docs.CreateSpreadsheet(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.perms.GrantPublicEdit(ctx, ref.ID); err != nil {
		return nil, err
	}

	var messages []string
	if snapshot != nil {
		messages = append(messages, snapshot.Messages...)
	}
	messages = append(messages, msgSpreadsheetCreated)

	return &PowerHourResult{
		PowerHour: &model.PowerHour{
			ID:             uuid.New(),
			BillID:         bill.ID,
			Title:          title,
			SpreadsheetID:  ref.ID,
			SpreadsheetURL: ref.URL,
			CreatedAt:      s.now().UTC(),
		},
		Messages: messages,
	}, nil
}

// partitionSponsors attaches legislator data to sponsorships, orders them by
// sponsor sequence then name, and returns everyone else as non-sponsors
func partitionSponsors(sponsorships []model.Sponsorship, legislators []model.Legislator) ([]model.Sponsorship, []model.Legislator) {
	byID := make(map[uuid.UUID]*model.Legislator, len(legislators))
	for i := range legislators {
		byID[legislators[i].ID] = &legislators[i]
	}

	sponsors := make([]model.Sponsorship, 0, len(sponsorships))
	isSponsor := make(map[uuid.UUID]bool, len(sponsorships))
	for _, sp := range sponsorships {
		l, ok := byID[sp.LegislatorID]
		if !ok {
			continue
		}
		sp.Legislator = l
		sponsors = append(sponsors, sp)
		isSponsor[sp.LegislatorID] = true
	}
	sort.SliceStable(sponsors, func(i, j int) bool {
		if sponsors[i].SponsorSequence != sponsors[j].SponsorSequence {
			return sponsors[i].SponsorSequence < sponsors[j].SponsorSequence
		}
		return sponsors[i].Legislator.Name < sponsors[j].Legislator.Name
	})

	var nonSponsors []model.Legislator
	for _, l := range legislators {
		if !isSponsor[l.ID] {
			nonSponsors = append(nonSponsors, l)
		}
	}
	return sponsors, nonSponsors
}

// SponsorshipView groups a bill's sponsors for display
type SponsorshipView struct {
	LeadSponsor *model.Sponsorship  `json:"leadSponsor"`
	Cosponsors  []model.Sponsorship `json:"cosponsors"`
	NonSponsors []model.Legislator  `json:"nonSponsors"`
}

// BuildSponsorshipView splits sponsorships into lead, cosponsors and non-sponsors
func BuildSponsorshipView(sponsorships []model.Sponsorship, legislators []model.Legislator) *SponsorshipView {
	sponsors, nonSponsors := partitionSponsors(sponsorships, legislators)
	view := &SponsorshipView{
		Cosponsors:  []model.Sponsorship{},
		NonSponsors: sheets.SortByBorough(nonSponsors),
	}
	for i := range sponsors {
		if sponsors[i].IsLead() && view.LeadSponsor == nil {
			view.LeadSponsor = &sponsors[i]
			continue
		}
		view.Cosponsors = append(view.Cosponsors, sponsors[i])
	}
	return view
}
