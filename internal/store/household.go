package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/choreboard/internal/model"
)

type HouseholdStore struct {
	db Queryer
}

func NewHouseholdStore(db Queryer) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(s scanner) (*model.Household, error) {
	var h model.Household
	err := s.Scan(&h.ID, &h.Name, &h.AdminID, &h.InviteCode, &h.PointMultiplier, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, admin_id, invite_code, point_multiplier, created_at, updated_at`

func (s *HouseholdStore) Create(ctx context.Context, name string, adminID int64, inviteCode string) (*model.Household, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO households (name, admin_id, invite_code) VALUES (?, ?, ?)`,
		name, adminID, inviteCode,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByInviteCode(ctx context.Context, code string) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE invite_code = ?`, code)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by invite code: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(ctx context.Context, id int64, name string, pointMultiplier float64) (*model.Household, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET name = ?, point_multiplier = ? WHERE id = ?`,
		name, pointMultiplier, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) SetInviteCode(ctx context.Context, id int64, code string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE households SET invite_code = ? WHERE id = ?`, code, id)
	if err != nil {
		return fmt.Errorf("set invite code: %w", err)
	}
	return nil
}

func (s *HouseholdStore) SetAdmin(ctx context.Context, id, adminID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE households SET admin_id = ? WHERE id = ?`, adminID, id)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

func (s *HouseholdStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

// ListIDs returns the IDs of every household.
func (s *HouseholdStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM households ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list household ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan household id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
