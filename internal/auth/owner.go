package auth

import (
	"context"
	"database/sql"
	"errors"

	masterdata "agroalert/internal/masterdata/domain"
	masterdatarepo "agroalert/internal/masterdata/infrastructure/postgres"
)

var (
	// ErrOwnerMismatch indicates the resource belongs to a different user.
	ErrOwnerMismatch = errors.New("auth: owner mismatch")
	// ErrNotFound indicates the checked resource does not exist.
	ErrNotFound = errors.New("auth: resource not found")
)

// FieldOwnerChecker validates field ownership.
type FieldOwnerChecker interface {
	EnsureFieldOwner(ctx context.Context, userID, fieldID string) error
}

// OwnerChecker checks field ownership using masterdata.
type OwnerChecker struct {
	repo *masterdatarepo.FieldRepository
}

// NewOwnerChecker constructs an OwnerChecker.
func NewOwnerChecker(db *sql.DB) *OwnerChecker {
	if db == nil {
		return nil
	}
	return &OwnerChecker{repo: masterdatarepo.NewFieldRepository(db)}
}

// EnsureFieldOwner verifies the field belongs to the user. Operators and
// admins bypass the check by passing an empty userID.
func (c *OwnerChecker) EnsureFieldOwner(ctx context.Context, userID, fieldID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if userID == "" || fieldID == "" {
		return nil
	}
	field, err := c.repo.GetByID(ctx, fieldID)
	if errors.Is(err, masterdata.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if field.UserID != userID {
		return ErrOwnerMismatch
	}
	return nil
}
