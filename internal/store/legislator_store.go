package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/lib/pq"
)

// LegislatorStore handles database operations for council members, their
// office contacts and their staff
type LegislatorStore struct {
	db Querier
}

// NewLegislatorStore creates a new LegislatorStore
func NewLegislatorStore(db Querier) *LegislatorStore {
	return &LegislatorStore{db: db}
}

const legislatorColumns = `
	p.id, cm.city_council_person_id, p.name, COALESCE(p.title, ''), COALESCE(p.email, ''),
	COALESCE(p.party, ''), COALESCE(cm.borough, ''), COALESCE(p.twitter, ''),
	COALESCE(cm.website, ''), COALESCE(p.notes, ''), cm.term_start, cm.term_end
`

func scanLegislator(row interface{ Scan(...interface{}) error }, l *model.Legislator) error {
	return row.Scan(
		&l.ID,
		&l.CouncilPersonID,
		&l.Name,
		&l.Title,
		&l.Email,
		&l.Party,
		&l.Borough,
		&l.Twitter,
		&l.Website,
		&l.Notes,
		&l.TermStart,
		&l.TermEnd,
	)
}

// ListCouncilMembers retrieves every council member with contacts and staff loaded
func (s *LegislatorStore) ListCouncilMembers(ctx context.Context) ([]model.Legislator, error) {
	query := `
		SELECT ` + legislatorColumns + `
		FROM persons p
		INNER JOIN council_members cm ON cm.person_id = p.id
		ORDER BY p.name
	`

	legislators, err := s.queryLegislators(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := s.loadDetails(ctx, legislators); err != nil {
		return nil, err
	}
	return legislators, nil
}

// GetCouncilMember retrieves a council member by person id, or nil if absent
func (s *LegislatorStore) GetCouncilMember(ctx context.Context, id uuid.UUID) (*model.Legislator, error) {
	query := `
		SELECT ` + legislatorColumns + `
		FROM persons p
		INNER JOIN council_members cm ON cm.person_id = p.id
		WHERE p.id = $1
	`

	var l model.Legislator
	err := scanLegislator(s.db.QueryRowContext(ctx, query, id), &l)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get council member %s: %w", id, err)
	}

	details := []model.Legislator{l}
	if err := s.loadDetails(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

// FindByCouncilPersonIDs retrieves the council members matching the given external ids.
// Ids with no local council member are simply absent from the result.
func (s *LegislatorStore) FindByCouncilPersonIDs(ctx context.Context, ids []int) ([]model.Legislator, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + legislatorColumns + `
		FROM persons p
		INNER JOIN council_members cm ON cm.person_id = p.id
		WHERE cm.city_council_person_id = ANY($1)
	`

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	return s.queryLegislators(ctx, query, pq.Array(ids64))
}

// GetByCouncilPersonID retrieves a council member by external id, or nil if absent
func (s *LegislatorStore) GetByCouncilPersonID(ctx context.Context, councilPersonID int) (*model.Legislator, error) {
	query := `
		SELECT ` + legislatorColumns + `
		FROM persons p
		INNER JOIN council_members cm ON cm.person_id = p.id
		WHERE cm.city_council_person_id = $1
	`

	var l model.Legislator
	err := scanLegislator(s.db.QueryRowContext(ctx, query, councilPersonID), &l)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get council member %d: %w", councilPersonID, err)
	}
	return &l, nil
}

// UpsertCouncilMember creates or updates the council member for an office record.
// Returns true when a new council member was created.
func (s *LegislatorStore) UpsertCouncilMember(ctx context.Context, rec model.CouncilMemberRecord) (created bool, err error) {
	existing, err := s.GetByCouncilPersonID(ctx, rec.CouncilPersonID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		id := uuid.New()
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO persons (id, type, name, title)
			VALUES ($1, $2, $3, $4)
		`, id, model.PersonTypeCouncilMember, rec.FullName, councilMemberTitle)
		if err != nil {
			return false, translateError(err, "failed to insert person for council member %d", rec.CouncilPersonID)
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO council_members (person_id, city_council_person_id, term_start, term_end)
			VALUES ($1, $2, $3, $4)
		`, id, rec.CouncilPersonID, rec.TermStart, rec.TermEnd)
		if err != nil {
			return false, translateError(err, "failed to insert council member %d", rec.CouncilPersonID)
		}
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE persons SET name = $2, title = $3 WHERE id = $1
	`, existing.ID, rec.FullName, councilMemberTitle)
	if err != nil {
		return false, fmt.Errorf("failed to update person for council member %d: %w", rec.CouncilPersonID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE council_members SET term_start = $2, term_end = $3 WHERE person_id = $1
	`, existing.ID, rec.TermStart, rec.TermEnd)
	if err != nil {
		return false, fmt.Errorf("failed to update council member %d: %w", rec.CouncilPersonID, err)
	}
	return false, nil
}

const councilMemberTitle = "City Council Member"

// UpdateContactDetails sets email and website and replaces the office contacts
func (s *LegislatorStore) UpdateContactDetails(ctx context.Context, id uuid.UUID, email, website string, contacts []model.OfficeContact) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE persons SET email = $2 WHERE id = $1`, id, nullString(email)); err != nil {
		return fmt.Errorf("failed to update email for %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE council_members SET website = $2 WHERE person_id = $1`, id, nullString(website)); err != nil {
		return fmt.Errorf("failed to update website for %s: %w", id, err)
	}
	return s.ReplaceOfficeContacts(ctx, id, contacts)
}

// ReplaceOfficeContacts deletes a person's office contacts and inserts the given ones in order
func (s *LegislatorStore) ReplaceOfficeContacts(ctx context.Context, personID uuid.UUID, contacts []model.OfficeContact) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM office_contacts WHERE person_id = $1`, personID); err != nil {
		return fmt.Errorf("failed to clear office contacts for %s: %w", personID, err)
	}

	for i, c := range contacts {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO office_contacts (id, person_id, position, type, phone, fax, city)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), personID, i, c.Type, nullString(c.Phone), nullString(c.Fax), nullString(c.City))
		if err != nil {
			return fmt.Errorf("failed to insert office contact for %s: %w", personID, err)
		}
	}
	return nil
}

// UpdateStaticData overlays cleaned reference data onto a council member
func (s *LegislatorStore) UpdateStaticData(ctx context.Context, id uuid.UUID, data model.StaticLegislator) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE persons SET name = $2, party = $3, twitter = $4 WHERE id = $1
	`, id, data.Name, nullString(data.Party), nullString(data.Twitter))
	if err != nil {
		return fmt.Errorf("failed to update static data for %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE council_members SET borough = $2 WHERE person_id = $1`, id, nullString(data.Borough))
	if err != nil {
		return fmt.Errorf("failed to update borough for %s: %w", id, err)
	}
	return nil
}

// AddStaffer creates a staffer working for the given council member
func (s *LegislatorStore) AddStaffer(ctx context.Context, bossID uuid.UUID, st *model.Staffer) error {
	st.ID = uuid.New()
	st.BossID = bossID

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, type, name, title, email, twitter)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, st.ID, model.PersonTypeStaffer, st.Name, nullString(st.Title), nullString(st.Email), nullString(st.Twitter))
	if err != nil {
		return translateError(err, "failed to insert staffer %s", st.Name)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO staffers (person_id, boss_id) VALUES ($1, $2)`, st.ID, bossID); err != nil {
		return translateError(err, "failed to link staffer %s", st.Name)
	}
	return s.ReplaceOfficeContacts(ctx, st.ID, st.Contacts)
}

func (s *LegislatorStore) queryLegislators(ctx context.Context, query string, args ...interface{}) ([]model.Legislator, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get council members: %w", err)
	}
	defer rows.Close()

	var legislators []model.Legislator
	for rows.Next() {
		var l model.Legislator
		if err := scanLegislator(rows, &l); err != nil {
			return nil, fmt.Errorf("failed to scan council member: %w", err)
		}
		legislators = append(legislators, l)
	}

	return legislators, rows.Err()
}

// loadDetails fills in office contacts and staffers for the given legislators
func (s *LegislatorStore) loadDetails(ctx context.Context, legislators []model.Legislator) error {
	if len(legislators) == 0 {
		return nil
	}

	ids := make([]string, len(legislators))
	index := make(map[uuid.UUID]int, len(legislators))
	for i, l := range legislators {
		ids[i] = l.ID.String()
		index[l.ID] = i
	}

	// Staffers
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, st.boss_id, p.name, COALESCE(p.title, ''), COALESCE(p.email, ''), COALESCE(p.twitter, '')
		FROM staffers st
		INNER JOIN persons p ON p.id = st.person_id
		WHERE st.boss_id = ANY($1::uuid[])
		ORDER BY p.name
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get staffers: %w", err)
	}
	var staffers []model.Staffer
	for rows.Next() {
		var st model.Staffer
		if err := rows.Scan(&st.ID, &st.BossID, &st.Name, &st.Title, &st.Email, &st.Twitter); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan staffer: %w", err)
		}
		staffers = append(staffers, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Office contacts for legislators and staffers in one pass
	personIDs := append([]string{}, ids...)
	for _, st := range staffers {
		personIDs = append(personIDs, st.ID.String())
	}
	contacts, err := s.contactsFor(ctx, personIDs)
	if err != nil {
		return err
	}

	for i := range legislators {
		legislators[i].Contacts = contacts[legislators[i].ID]
	}
	for _, st := range staffers {
		st.Contacts = contacts[st.ID]
		boss := &legislators[index[st.BossID]]
		boss.Staffers = append(boss.Staffers, st)
	}
	return nil
}

func (s *LegislatorStore) contactsFor(ctx context.Context, personIDs []string) (map[uuid.UUID][]model.OfficeContact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, type, COALESCE(phone, ''), COALESCE(fax, ''), COALESCE(city, '')
		FROM office_contacts
		WHERE person_id = ANY($1::uuid[])
		ORDER BY person_id, position
	`, pq.Array(personIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get office contacts: %w", err)
	}
	defer rows.Close()

	contacts := make(map[uuid.UUID][]model.OfficeContact)
	for rows.Next() {
		var personID uuid.UUID
		var c model.OfficeContact
		if err := rows.Scan(&personID, &c.Type, &c.Phone, &c.Fax, &c.City); err != nil {
			return nil, fmt.Errorf("failed to scan office contact: %w", err)
		}
		contacts[personID] = append(contacts[personID], c)
	}
	return contacts, rows.Err()
}
