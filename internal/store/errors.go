package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConflict   = errors.New("record was modified concurrently")
	ErrDuplicate  = errors.New("duplicate value")
	ErrForeignKey = errors.New("foreign key violation")
	ErrConstraint = errors.New("check constraint violation")
)

// Postgres SQLSTATE codes, class 23 (integrity constraint violation).
const (
	pgErrForeignKeyViolation = "23503"
	pgErrUniqueViolation     = "23505"
	pgErrCheckViolation      = "23514"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgErrForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		case pgErrCheckViolation:
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
		}
	}

	// Dialector-translated errors (gorm.Config.TranslateError).
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
