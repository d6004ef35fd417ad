package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/lib/pq"
)

// BillStore handles database operations for bills and their city/state detail rows
type BillStore struct {
	db Querier
}

// NewBillStore creates a new BillStore
func NewBillStore(db Querier) *BillStore {
	return &BillStore{db: db}
}

const billSelect = `
	SELECT b.id, b.type, b.name, b.description, b.notes, b.nickname, b.twitter_search_terms, b.created_at,
	       cb.city_bill_id, cb.file, cb.title, cb.status, cb.council_body, cb.intro_date, cb.active_version,
	       sb.session_year, sb.base_print_no, sb.chamber, sb.active_version, sb.status, sb.summary
	FROM bills b
	LEFT JOIN city_bills cb ON cb.bill_id = b.id
	LEFT JOIN state_bills sb ON sb.bill_id = b.id
`

func scanBill(row interface{ Scan(...interface{}) error }) (*model.Bill, error) {
	var (
		b     model.Bill
		terms pq.StringArray

		cityID                                              sql.NullInt64
		cityFile, cityTitle, cityStatus, cityBody, cityVers sql.NullString
		cityIntro                                           sql.NullTime

		sessionYear                                                sql.NullInt64
		printNo, chamber, stateVersion, stateStatus, stateSummary sql.NullString
	)

	err := row.Scan(
		&b.ID, &b.Type, &b.Name, &b.Description, &b.Notes, &b.Nickname, &terms, &b.CreatedAt,
		&cityID, &cityFile, &cityTitle, &cityStatus, &cityBody, &cityIntro, &cityVers,
		&sessionYear, &printNo, &chamber, &stateVersion, &stateStatus, &stateSummary,
	)
	if err != nil {
		return nil, err
	}

	b.TwitterSearchTerms = []string(terms)
	if cityID.Valid {
		b.City = &model.CityBill{
			CityBillID:    int(cityID.Int64),
			File:          cityFile.String,
			Title:         cityTitle.String,
			Status:        cityStatus.String,
			CouncilBody:   cityBody.String,
			IntroDate:     cityIntro.Time,
			ActiveVersion: cityVers.String,
		}
	}
	if sessionYear.Valid {
		b.State = &model.StateBill{
			SessionYear:   int(sessionYear.Int64),
			BasePrintNo:   printNo.String,
			Chamber:       model.StateChamber(chamber.String),
			ActiveVersion: stateVersion.String,
			Status:        stateStatus.String,
			Summary:       stateSummary.String,
		}
	}
	return &b, nil
}

// List retrieves all bills ordered by name
func (s *BillStore) List(ctx context.Context) ([]model.Bill, error) {
	return s.query(ctx, billSelect+` ORDER BY b.name`)
}

// ListByType retrieves all bills of one type ordered by name
func (s *BillStore) ListByType(ctx context.Context, t model.BillType) ([]model.Bill, error) {
	return s.query(ctx, billSelect+` WHERE b.type = $1 ORDER BY b.name`, t)
}

// GetByID retrieves a bill, or nil if absent
func (s *BillStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx, billSelect+` WHERE b.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill %s: %w", id, err)
	}
	return b, nil
}

// GetByCityBillID retrieves the bill tracking the given council matter, or nil if absent
func (s *BillStore) GetByCityBillID(ctx context.Context, cityBillID int) (*model.Bill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx, billSelect+` WHERE cb.city_bill_id = $1`, cityBillID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city bill %d: %w", cityBillID, err)
	}
	return b, nil
}

// TrackedCityBillIDs returns the subset of the given council matter ids that are tracked
func (s *BillStore) TrackedCityBillIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	tracked := make(map[int]bool)
	if len(ids) == 0 {
		return tracked, nil
	}

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT city_bill_id FROM city_bills WHERE city_bill_id = ANY($1)`, pq.Array(ids64))
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked city bills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan city bill id: %w", err)
		}
		tracked[id] = true
	}
	return tracked, rows.Err()
}

// FindStateBillsByPrintNo retrieves the tracked state bills with any of the given base print numbers
func (s *BillStore) FindStateBillsByPrintNo(ctx context.Context, printNos []string) ([]model.StateBill, error) {
	if len(printNos) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_year, base_print_no, chamber, active_version, status, summary
		FROM state_bills
		WHERE base_print_no = ANY($1)
	`, pq.Array(printNos))
	if err != nil {
		return nil, fmt.Errorf("failed to get state bills: %w", err)
	}
	defer rows.Close()

	var bills []model.StateBill
	for rows.Next() {
		var sb model.StateBill
		if err := rows.Scan(&sb.SessionYear, &sb.BasePrintNo, &sb.Chamber, &sb.ActiveVersion, &sb.Status, &sb.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan state bill: %w", err)
		}
		bills = append(bills, sb)
	}
	return bills, rows.Err()
}

// Create inserts a bill and its city or state detail row
func (s *BillStore) Create(ctx context.Context, b *model.Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.TwitterSearchTerms == nil {
		b.TwitterSearchTerms = []string{}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO bills (id, type, name, description, notes, nickname, twitter_search_terms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, b.ID, b.Type, b.Name, b.Description, b.Notes, b.Nickname, pq.Array(b.TwitterSearchTerms)).Scan(&b.CreatedAt)
	if err != nil {
		return translateError(err, "failed to insert bill %s", b.Name)
	}

	switch b.Type {
	case model.BillTypeCity:
		if b.City == nil {
			return apperr.Validation("city bill %s is missing city details", b.Name)
		}
		c := b.City
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO city_bills (bill_id, city_bill_id, file, title, status, council_body, intro_date, active_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, b.ID, c.CityBillID, c.File, c.Title, c.Status, c.CouncilBody, nullTime(c.IntroDate), c.ActiveVersion)
		if err != nil {
			return translateError(err, "failed to insert city bill %d", c.CityBillID)
		}
	case model.BillTypeState:
		if b.State == nil {
			return apperr.Validation("state bill %s is missing state details", b.Name)
		}
		st := b.State
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO state_bills (bill_id, session_year, base_print_no, chamber, active_version, status, summary)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, b.ID, st.SessionYear, st.BasePrintNo, st.Chamber, st.ActiveVersion, st.Status, st.Summary)
		if err != nil {
			return translateError(err, "failed to insert state bill %s-%d", st.BasePrintNo, st.SessionYear)
		}
	default:
		return apperr.Validation("unknown bill type %q", b.Type)
	}

	return nil
}

// UpdateEditable saves the user-editable fields of a bill
func (s *BillStore) UpdateEditable(ctx context.Context, id uuid.UUID, notes, nickname string, terms []string) error {
	if terms == nil {
		terms = []string{}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE bills SET notes = $2, nickname = $3, twitter_search_terms = $4 WHERE id = $1
	`, id, notes, nickname, pq.Array(terms))
	if err != nil {
		return fmt.Errorf("failed to update bill %s: %w", id, err)
	}
	return requireAffected(res, "bill %s not found", id)
}

// SaveUpstreamFields persists the upstream-owned fields of a city bill
func (s *BillStore) SaveUpstreamFields(ctx context.Context, b *model.Bill) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE bills SET name = $2, description = $3 WHERE id = $1
	`, b.ID, b.Name, b.Description); err != nil {
		return fmt.Errorf("failed to update bill %s: %w", b.ID, err)
	}

	if b.City == nil {
		return nil
	}
	c := b.City
	_, err := s.db.ExecContext(ctx, `
		UPDATE city_bills
		SET file = $2, title = $3, status = $4, council_body = $5, intro_date = $6, active_version = $7
		WHERE bill_id = $1
	`, b.ID, c.File, c.Title, c.Status, c.CouncilBody, nullTime(c.IntroDate), c.ActiveVersion)
	if err != nil {
		return fmt.Errorf("failed to update city bill %d: %w", c.CityBillID, err)
	}
	return nil
}

// Delete removes a bill; attachments, sponsorships and power hours cascade
func (s *BillStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill %s: %w", id, err)
	}
	return requireAffected(res, "bill %s not found", id)
}

func (s *BillStore) query(ctx context.Context, query string, args ...interface{}) ([]model.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}
