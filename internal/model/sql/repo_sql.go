package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var errNotInitialised = errors.New("repository not initialised")

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ready(op string) error {
	if r == nil || r.db == nil {
		return apperrors.Persistence(op, errNotInitialised)
	}
	return nil
}

// classify maps a driver error onto the repository error contract.
func classify(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, id)
	}
	if isUniqueViolation(err) {
		return apperrors.Conflict(resource, id)
	}
	return apperrors.Persistence(op, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	msg := err.Error()
	// sqlite and mysql report duplicates only through the message.
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

func requireID(op, name, id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", apperrors.Persistence(op, fmt.Errorf("%s is required", name))
	}
	return trimmed, nil
}
