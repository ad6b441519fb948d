package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/larder/internal/model"
	"github.com/google/uuid"
)

type ContributionStore struct {
	db DBTX
}

func NewContributionStore(db DBTX) *ContributionStore {
	return &ContributionStore{db: db}
}

// ContributionInput is the data recorded when an offer is created.
type ContributionInput struct {
	ContributorID      string
	SourcePantryItemID *string
	Name               string
	Quantity           int
	Unit               model.Unit
	Category           model.Category
	Description        string
	Location           string
	AvailableUntil     *time.Time
}

// ContributionUpdate holds the fields a contributor may edit.
type ContributionUpdate struct {
	Quantity       int
	Description    string
	Location       string
	AvailableUntil *time.Time
}

func scanContribution(s scanner) (*model.Contribution, error) {
	var c model.Contribution
	var unit, category, status string
	var source, claimedBy sql.NullString
	var availableUntil, claimedAt, collectedAt sql.NullTime

	err := s.Scan(
		&c.ID, &c.ContributorID, &source, &c.Name, &c.Quantity, &unit, &category,
		&c.Description, &c.Location, &availableUntil, &status, &claimedBy,
		&claimedAt, &collectedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Unit = model.Unit(unit)
	c.Category = model.Category(category)
	c.Status = model.ContributionStatus(status)
	c.SourcePantryItemID = stringPtr(source)
	c.ClaimedBy = stringPtr(claimedBy)
	c.AvailableUntil = timePtr(availableUntil)
	c.ClaimedAt = timePtr(claimedAt)
	c.CollectedAt = timePtr(collectedAt)
	return &c, nil
}

const contributionCols = `id, contributor_id, source_pantry_item_id, name, quantity, unit, category,
	description, location, available_until, status, claimed_by, claimed_at, collected_at,
	created_at, updated_at`

func (s *ContributionStore) query(ctx context.Context, query string, args ...any) ([]model.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Create inserts a new offer in the available state.
func (s *ContributionStore) Create(ctx context.Context, in ContributionInput) (*model.Contribution, error) {
	id := uuid.NewString()
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contributions (id, contributor_id, source_pantry_item_id, name, quantity, unit, category,
			description, location, available_until, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.ContributorID, nullString(in.SourcePantryItemID), in.Name, in.Quantity,
		string(in.Unit), string(in.Category), in.Description, in.Location,
		nullTime(in.AvailableUntil), string(model.StatusAvailable), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contribution: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *ContributionStore) Get(ctx context.Context, id string) (*model.Contribution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contributionCols+` FROM contributions WHERE id = ?`, id)
	c, err := scanContribution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contribution: %w", err)
	}
	return c, nil
}

// ListAvailable returns the community feed: available, unexpired offers from
// anyone but excludeUser, newest first.
func (s *ContributionStore) ListAvailable(ctx context.Context, excludeUser string, at time.Time) ([]model.Contribution, error) {
	out, err := s.query(ctx,
		`SELECT `+contributionCols+` FROM contributions
		 WHERE status = ? AND contributor_id != ? AND (available_until IS NULL OR available_until > ?)
		 ORDER BY created_at DESC, id DESC`,
		string(model.StatusAvailable), excludeUser, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list available contributions: %w", err)
	}
	return out, nil
}

func (s *ContributionStore) ListByContributor(ctx context.Context, contributorID string) ([]model.Contribution, error) {
	out, err := s.query(ctx,
		`SELECT `+contributionCols+` FROM contributions WHERE contributor_id = ? ORDER BY created_at DESC, id DESC`,
		contributorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contributions by contributor: %w", err)
	}
	return out, nil
}

func (s *ContributionStore) ListClaimedBy(ctx context.Context, userID string) ([]model.Contribution, error) {
	out, err := s.query(ctx,
		`SELECT `+contributionCols+` FROM contributions WHERE claimed_by = ? ORDER BY claimed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list claimed contributions: %w", err)
	}
	return out, nil
}

// UpdateDetails rewrites the editable fields while the offer is still in
// status `from`. It reports false when the status no longer matches.
func (s *ContributionStore) UpdateDetails(ctx context.Context, id string, from model.ContributionStatus, u ContributionUpdate) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contributions SET quantity = ?, description = ?, location = ?, available_until = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		u.Quantity, u.Description, u.Location, nullTime(u.AvailableUntil), now(),
		id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update contribution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Transition moves an offer from one status to another with a single
// compare-and-set statement, stamping claim or collection metadata.
// It reports false when the stored status was not `from`.
func (s *ContributionStore) Transition(ctx context.Context, id string, from, to model.ContributionStatus, actorID string, at time.Time) (bool, error) {
	at = at.UTC()
	var res sql.Result
	var err error
	switch to {
	case model.StatusClaimed:
		res, err = s.db.ExecContext(ctx,
			`UPDATE contributions SET status = ?, claimed_by = ?, claimed_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			string(to), actorID, at, at, id, string(from))
	case model.StatusCollected:
		res, err = s.db.ExecContext(ctx,
			`UPDATE contributions SET status = ?, collected_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			string(to), at, at, id, string(from))
	default:
		res, err = s.db.ExecContext(ctx,
			`UPDATE contributions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), at, id, string(from))
	}
	if err != nil {
		return false, fmt.Errorf("transition contribution %s -> %s: %w", from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
