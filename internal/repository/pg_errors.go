package repository

import (
	"errors"
	"strings"

	domainRepo "clinic-backend/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	appointmentSlotIndex = "uq_appointments_doctor_slot"
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation &&
			strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
	}
	return false
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// translateError maps storage constraint failures onto domain sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKeyError(err, appointmentSlotIndex):
		return domainRepo.ErrSlotTaken
	case isDuplicateKeyError(err, ""):
		return domainRepo.ErrDuplicate
	case isForeignKeyError(err):
		return errors.Join(domainRepo.ErrNotReferenced, err)
	}
	return err
}
