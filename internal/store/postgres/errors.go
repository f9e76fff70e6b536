package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Names of the uniqueness constraints this service relies on as its
// correctness backstop. They must match the schema exactly; the conflict
// translation keys on them.
const (
	constraintPatientPhone    = "patients_tenant_phone_key"
	constraintAppointmentSlot = "appointments_tenant_slot_key"
)

const uniqueViolationCode = "23505"

// violatesConstraint reports whether err is a Postgres unique violation on
// the named constraint. Matching on constraint identity keeps unrelated
// failures (connectivity, other constraints) out of the conflict path.
func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}
