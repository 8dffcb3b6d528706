package applications

import (
	"context"
	"database/sql"
)

// PGRepo mirrors application records into Postgres. The sheet remains
// the system of record; the mirror exists for querying and backup, so
// callers treat its failures as non-fatal.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts one application row.
func (r *PGRepo) Append(ctx context.Context, record ApplicationRecord) error {
	const query = `
INSERT INTO applications (
    id,
    name,
    email,
    phone,
    cv_url,
    personal_info,
    education,
    qualifications,
    projects,
    submitted_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		record.ID,
		record.Name,
		record.Email,
		record.Phone,
		record.CVURL,
		record.PersonalInfo,
		record.Education,
		record.Qualifications,
		record.Projects,
		record.SubmittedAt,
	)
	return err
}

var _ RecordSink = (*PGRepo)(nil)
