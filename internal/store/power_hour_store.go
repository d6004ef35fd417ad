package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jjenkins/billtracker/internal/model"
)

// PowerHourStore handles database operations for power hours and bill attachments
type PowerHourStore struct {
	db Querier
}

// NewPowerHourStore creates a new PowerHourStore
func NewPowerHourStore(db Querier) *PowerHourStore {
	return &PowerHourStore{db: db}
}

// ListForBill retrieves a bill's power hours, oldest first
func (s *PowerHourStore) ListForBill(ctx context.Context, billID uuid.UUID) ([]model.PowerHour, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, title, spreadsheet_id, spreadsheet_url, created_at
		FROM power_hours
		WHERE bill_id = $1
		ORDER BY created_at
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get power hours for bill %s: %w", billID, err)
	}
	defer rows.Close()

	var powerHours []model.PowerHour
	for rows.Next() {
		var ph model.PowerHour
		if err := rows.Scan(&ph.ID, &ph.BillID, &ph.Title, &ph.SpreadsheetID, &ph.SpreadsheetURL, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan power hour: %w", err)
		}
		powerHours = append(powerHours, ph)
	}
	return powerHours, rows.Err()
}

// GetByID retrieves a power hour, or nil if absent
func (s *PowerHourStore) GetByID(ctx context.Context, id uuid.UUID) (*model.PowerHour, error) {
	var ph model.PowerHour
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bill_id, title, spreadsheet_id, spreadsheet_url, created_at
		FROM power_hours
		WHERE id = $1
	`, id).Scan(&ph.ID, &ph.BillID, &ph.Title, &ph.SpreadsheetID, &ph.SpreadsheetURL, &ph.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get power hour %s: %w", id, err)
	}
	return &ph, nil
}

// Create inserts a power hour
func (s *PowerHourStore) Create(ctx context.Context, ph *model.PowerHour) error {
	if ph.ID == uuid.Nil {
		ph.ID = uuid.New()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO power_hours (id, bill_id, title, spreadsheet_id, spreadsheet_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, ph.ID, ph.BillID, ph.Title, ph.SpreadsheetID, ph.SpreadsheetURL).Scan(&ph.CreatedAt)
	if err != nil {
		return translateError(err, "failed to insert power hour %s", ph.Title)
	}
	return nil
}

// ListAttachments retrieves a bill's attachments
func (s *PowerHourStore) ListAttachments(ctx context.Context, billID uuid.UUID) ([]model.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, name, url FROM bill_attachments WHERE bill_id = $1 ORDER BY name
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments for bill %s: %w", billID, err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.BillID, &a.Name, &a.URL); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// AddAttachment inserts an attachment. A missing bill is reported as NotFound.
func (s *PowerHourStore) AddAttachment(ctx context.Context, a *model.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bill_attachments (id, bill_id, name, url)
		SELECT $1::uuid, id, $3::text, $4::text FROM bills WHERE id = $2
	`, a.ID, a.BillID, a.Name, a.URL)
	if err != nil {
		return translateError(err, "failed to insert attachment %s", a.Name)
	}
	return requireAffected(res, "bill %s not found", a.BillID)
}

// DeleteAttachment removes an attachment
func (s *PowerHourStore) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bill_attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment %s: %w", id, err)
	}
	return requireAffected(res, "attachment %s not found", id)
}
