package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choreboard/internal/model"
)

type UserStore struct {
	db Queryer
}

func NewUserStore(db Queryer) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var householdID sql.NullInt64
	err := s.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &householdID, &u.Role,
		&u.Points, &u.Avatar, &u.LastActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if householdID.Valid {
		u.HouseholdID = &householdID.Int64
	}
	return &u, nil
}

const userCols = `id, username, email, password_hash, household_id, role, points, avatar, last_active, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, last_active) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, utc(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) get(ctx context.Context, where string, arg any) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.get(ctx, `id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.get(ctx, `email = ?`, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.get(ctx, `username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// ListByHousehold returns the members of a household, highest points first.
func (s *UserStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY points DESC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by household: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// AddPoints atomically adjusts a user's point total by delta and returns the
// new total. A negative delta that would take the total below zero fails.
func (s *UserStore) AddPoints(ctx context.Context, id int64, delta int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET points = points + ? WHERE id = ? RETURNING points`,
		delta, id,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("add points: user %d not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return total, nil
}

func (s *UserStore) Touch(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, utc(at), id)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// SetHousehold moves a user into a household (or out of one when householdID
// is nil) with the given role.
func (s *UserStore) SetHousehold(ctx context.Context, id int64, householdID *int64, role string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET household_id = ?, role = ? WHERE id = ?`,
		nullInt64(householdID), role, id,
	)
	if err != nil {
		return fmt.Errorf("set household: %w", err)
	}
	return nil
}

// DetachHousehold removes every member from a household and resets roles.
func (s *UserStore) DetachHousehold(ctx context.Context, householdID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET household_id = NULL, role = 'member' WHERE household_id = ?`,
		householdID,
	)
	if err != nil {
		return fmt.Errorf("detach household: %w", err)
	}
	return nil
}
