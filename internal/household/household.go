// Package household manages households and their membership.
package household

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dukerupert/choreboard/internal/apperr"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/store"
)

const inviteAttempts = 5

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// NewInviteCode returns 8 random uppercase hex characters.
func NewInviteCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func (s *Service) uniqueInviteCode(ctx context.Context, q store.Queryer) (string, error) {
	households := store.NewHouseholdStore(q)
	for i := 0; i < inviteAttempts; i++ {
		code, err := NewInviteCode()
		if err != nil {
			return "", err
		}
		existing, err := households.GetByInviteCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate invite code: no free code after %d attempts", inviteAttempts)
}

func loadUser(ctx context.Context, q store.Queryer, userID int64) (*model.User, error) {
	u, err := store.NewUserStore(q).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return u, nil
}

// loadAdmin returns the user and their household, failing unless the user
// administers it.
func loadAdmin(ctx context.Context, q store.Queryer, userID int64) (*model.User, *model.Household, error) {
	u, err := loadUser(ctx, q, userID)
	if err != nil {
		return nil, nil, err
	}
	if u.HouseholdID == nil {
		return nil, nil, apperr.NotFound("you are not a member of a household")
	}
	h, err := store.NewHouseholdStore(q).GetByID(ctx, *u.HouseholdID)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, apperr.NotFound("household %d not found", *u.HouseholdID)
	}
	if h.AdminID != u.ID {
		return nil, nil, apperr.Forbidden("only the household admin can do that")
	}
	return u, h, nil
}

// Create makes a new household administered by userID.
func (s *Service) Create(ctx context.Context, userID int64, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("household name is required")
	}

	var h *model.Household
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u.HouseholdID != nil {
			return apperr.InvalidState("you already belong to a household")
		}
		code, err := s.uniqueInviteCode(ctx, tx)
		if err != nil {
			return err
		}
		if h, err = store.NewHouseholdStore(tx).Create(ctx, name, u.ID, code); err != nil {
			return err
		}
		return store.NewUserStore(tx).SetHousehold(ctx, u.ID, &h.ID, model.RoleAdmin)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Join adds userID to the household with the given invite code.
func (s *Service) Join(ctx context.Context, userID int64, inviteCode string) (*model.Household, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return nil, apperr.Validation("invite code is required")
	}

	var h *model.Household
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		h, err = store.NewHouseholdStore(tx).GetByInviteCode(ctx, code)
		if err != nil {
			return err
		}
		if h == nil {
			return apperr.NotFound("invalid invite code")
		}
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u.HouseholdID != nil {
			return apperr.InvalidState("you already belong to a household")
		}
		return store.NewUserStore(tx).SetHousehold(ctx, u.ID, &h.ID, model.RoleMember)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Mine returns the user's household with its members.
func (s *Service) Mine(ctx context.Context, userID int64) (*model.HouseholdDetail, error) {
	u, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if u.HouseholdID == nil {
		return nil, apperr.NotFound("you are not a member of a household")
	}
	h, err := store.NewHouseholdStore(s.db).GetByID(ctx, *u.HouseholdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("household %d not found", *u.HouseholdID)
	}
	members, err := store.NewUserStore(s.db).ListByHousehold(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	return &model.HouseholdDetail{Household: *h, Members: members}, nil
}

// Changes are the editable settings of a household. Nil fields are kept.
type Changes struct {
	Name            *string
	PointMultiplier *float64
}

// Update edits the admin's household. Existing completions keep the points
// they were recorded with.
func (s *Service) Update(ctx context.Context, adminID int64, c Changes) (*model.Household, error) {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return nil, apperr.Validation("household name cannot be empty")
	}
	if c.PointMultiplier != nil && *c.PointMultiplier < 0 {
		return nil, apperr.Validation("point multiplier cannot be negative")
	}

	var h *model.Household
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, cur, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		name, multiplier := cur.Name, cur.PointMultiplier
		if c.Name != nil {
			name = strings.TrimSpace(*c.Name)
		}
		if c.PointMultiplier != nil {
			multiplier = *c.PointMultiplier
		}
		h, err = store.NewHouseholdStore(tx).Update(ctx, cur.ID, name, multiplier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// RegenerateInvite replaces the household's invite code and returns the new
// one. The old code stops working immediately.
func (s *Service) RegenerateInvite(ctx context.Context, adminID int64) (string, error) {
	var code string
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, h, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		if code, err = s.uniqueInviteCode(ctx, tx); err != nil {
			return err
		}
		return store.NewHouseholdStore(tx).SetInviteCode(ctx, h.ID, code)
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// AddMember adds the user registered with email to the admin's household.
func (s *Service) AddMember(ctx context.Context, adminID int64, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}

	var added *model.User
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, h, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		users := store.NewUserStore(tx)
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFound("no user found with that email")
		}
		if u.HouseholdID != nil {
			return apperr.InvalidState("user already belongs to a household")
		}
		if err := users.SetHousehold(ctx, u.ID, &h.ID, model.RoleMember); err != nil {
			return err
		}
		added, err = users.GetByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMember detaches a member from the admin's household. The admin
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, adminID, memberID int64) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, h, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		if memberID == h.AdminID {
			return apperr.InvalidState("cannot remove the household admin; transfer the admin role or delete the household")
		}
		u, err := loadUser(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if !u.InHousehold(h.ID) {
			return apperr.NotFound("user %d is not a member of this household", memberID)
		}
		return store.NewUserStore(tx).SetHousehold(ctx, u.ID, nil, model.RoleMember)
	})
}

// TransferAdmin hands the admin role to another member.
func (s *Service) TransferAdmin(ctx context.Context, adminID, newAdminID int64) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		admin, h, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		if newAdminID == admin.ID {
			return apperr.InvalidState("you are already the admin")
		}
		next, err := loadUser(ctx, tx, newAdminID)
		if err != nil {
			return err
		}
		if !next.InHousehold(h.ID) {
			return apperr.InvalidState("user %d is not a member of this household", newAdminID)
		}

		users := store.NewUserStore(tx)
		if err := store.NewHouseholdStore(tx).SetAdmin(ctx, h.ID, next.ID); err != nil {
			return err
		}
		if err := users.SetHousehold(ctx, next.ID, &h.ID, model.RoleAdmin); err != nil {
			return err
		}
		return users.SetHousehold(ctx, admin.ID, &h.ID, model.RoleMember)
	})
}

// Delete removes the admin's household together with its chores. Members are
// detached. Their completions are kept as history, unlinked from the deleted
// household and chores, so point totals still match the recorded completions.
// It returns the deleted household's ID.
func (s *Service) Delete(ctx context.Context, adminID int64) (int64, error) {
	var id int64
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, h, err := loadAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		id = h.ID
		if err := store.NewUserStore(tx).DetachHousehold(ctx, h.ID); err != nil {
			return err
		}
		return store.NewHouseholdStore(tx).Delete(ctx, h.ID)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
