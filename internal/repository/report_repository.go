package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/secureleak/report-service/internal/domain"
)

// reportMutableColumns is the allow-list for partial report updates.
var reportMutableColumns = map[string]struct{}{
	"title":       {},
	"description": {},
	"severity":    {},
	"status":      {},
	"image_name":  {},
}

// ReportRepository encapsulates report persistence.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id int64) (*domain.Report, error)
	// ListVisibleTo returns public reports unioned with the caller's own
	// reports, newest first.
	ListVisibleTo(ctx context.Context, userID int64, limit, offset int) ([]domain.Report, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Report, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	const query = `
        INSERT INTO reports (owner_id, title, description, severity, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		report.OwnerID,
		report.Title,
		report.Description,
		report.Severity,
		report.Status,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
}

func (r *reportRepository) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	const query = `
        SELECT id, owner_id, title, description, severity, status, image_name, created_at, updated_at
        FROM reports WHERE id=$1`

	var report domain.Report
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.Title,
		&report.Description,
		&report.Severity,
		&report.Status,
		&report.ImageName,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListVisibleTo(ctx context.Context, userID int64, limit, offset int) ([]domain.Report, error) {
	const query = `
        SELECT id, owner_id, title, description, severity, status, image_name, created_at, updated_at
        FROM reports
        WHERE status='public' OR owner_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, normalizeLimit(limit), normalizeOffset(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *reportRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	const query = `
        SELECT id, owner_id, title, description, severity, status, image_name, created_at, updated_at
        FROM reports
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, normalizeLimit(limit), normalizeOffset(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func (r *reportRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	sets, args, err := buildAllowListedUpdate(fields, reportMutableColumns)
	if err != nil {
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE reports SET %s, updated_at=NOW() WHERE id=$%d",
		strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanReports(rows pgx.Rows) ([]domain.Report, error) {
	var result []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID,
			&report.OwnerID,
			&report.Title,
			&report.Description,
			&report.Severity,
			&report.Status,
			&report.ImageName,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
