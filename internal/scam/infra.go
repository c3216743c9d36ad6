package scam

import (
	"context"
	"database/sql"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

// EnsureSchema creates the reports table if missing. Called once at
// startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scam_reports (
			id BIGSERIAL PRIMARY KEY,
			scammer_mobile TEXT NOT NULL,
			scam_category_id INT NOT NULL,
			reporter_ordeal TEXT NOT NULL,
			reporter_mobile TEXT,
			reporter_email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (reporter_mobile IS NOT NULL OR reporter_email IS NOT NULL)
		);
		CREATE INDEX IF NOT EXISTS idx_scam_reports_scammer_mobile
			ON scam_reports (scammer_mobile);
	`)
	return err
}

func (r *repo) Insert(ctx context.Context, rep *Report) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO scam_reports (scammer_mobile, scam_category_id, reporter_ordeal, reporter_mobile, reporter_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		rep.ScammerMobile,
		rep.ScamCategoryID,
		rep.ReporterOrdeal,
		rep.ReporterMobile,
		rep.ReporterEmail,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) FindByMobile(ctx context.Context, normalizedMobile string) ([]Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scammer_mobile, scam_category_id, reporter_ordeal, reporter_mobile, reporter_email, created_at
		FROM scam_reports
		WHERE scammer_mobile = $1
		ORDER BY created_at ASC
	`, normalizedMobile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(
			&rep.ID,
			&rep.ScammerMobile,
			&rep.ScamCategoryID,
			&rep.ReporterOrdeal,
			&rep.ReporterMobile,
			&rep.ReporterEmail,
			&rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}

	return out, rows.Err()
}
