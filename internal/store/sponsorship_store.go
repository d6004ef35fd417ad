package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/model"
)

// SponsorshipStore handles database operations for city bill sponsorships
type SponsorshipStore struct {
	db Querier
}

// NewSponsorshipStore creates a new SponsorshipStore
func NewSponsorshipStore(db Querier) *SponsorshipStore {
	return &SponsorshipStore{db: db}
}

// ListForBill retrieves a bill's sponsorships ordered by sponsor sequence,
// with the external council person id of each sponsor filled in
func (s *SponsorshipStore) ListForBill(ctx context.Context, billID uuid.UUID) ([]model.Sponsorship, error) {
	query := `
		SELECT cs.bill_id, cs.council_member_id, cm.city_council_person_id, cs.sponsor_sequence, cs.added_at
		FROM city_sponsorships cs
		INNER JOIN council_members cm ON cm.person_id = cs.council_member_id
		WHERE cs.bill_id = $1
		ORDER BY cs.sponsor_sequence
	`

	rows, err := s.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsorships for bill %s: %w", billID, err)
	}
	defer rows.Close()

	var sponsorships []model.Sponsorship
	for rows.Next() {
		var sp model.Sponsorship
		if err := rows.Scan(&sp.BillID, &sp.LegislatorID, &sp.CouncilPersonID, &sp.SponsorSequence, &sp.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sponsorship: %w", err)
		}
		sponsorships = append(sponsorships, sp)
	}

	return sponsorships, rows.Err()
}

// Insert creates a sponsorship. A duplicate (bill, legislator) pair is a Conflict.
func (s *SponsorshipStore) Insert(ctx context.Context, sp *model.Sponsorship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO city_sponsorships (bill_id, council_member_id, sponsor_sequence, added_at)
		VALUES ($1, $2, $3, $4)
	`, sp.BillID, sp.LegislatorID, sp.SponsorSequence, sp.AddedAt)
	if err != nil {
		return translateError(err, "failed to insert sponsorship of bill %s by %s", sp.BillID, sp.LegislatorID)
	}
	return nil
}

// UpdateSequence changes the sponsor rank of an existing sponsorship. added_at is never touched.
func (s *SponsorshipStore) UpdateSequence(ctx context.Context, billID, legislatorID uuid.UUID, sequence int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE city_sponsorships SET sponsor_sequence = $3
		WHERE bill_id = $1 AND council_member_id = $2
	`, billID, legislatorID, sequence)
	if err != nil {
		return fmt.Errorf("failed to update sponsorship of bill %s by %s: %w", billID, legislatorID, err)
	}
	return requireAffected(res, "sponsorship of bill %s by %s not found", billID, legislatorID)
}

// Delete removes a sponsorship
func (s *SponsorshipStore) Delete(ctx context.Context, billID, legislatorID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM city_sponsorships WHERE bill_id = $1 AND council_member_id = $2
	`, billID, legislatorID)
	if err != nil {
		return fmt.Errorf("failed to delete sponsorship of bill %s by %s: %w", billID, legislatorID, err)
	}
	return nil
}

// ListForLegislator retrieves the ids of bills a legislator sponsors
func (s *SponsorshipStore) ListForLegislator(ctx context.Context, legislatorID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bill_id FROM city_sponsorships WHERE council_member_id = $1 ORDER BY bill_id
	`, legislatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsorships for %s: %w", legislatorID, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bill id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
