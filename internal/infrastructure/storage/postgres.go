// Package storage persists complaint records in Postgres.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

var complaintColumns = []string{
	"id", "title", "description", "category", "status",
	"lat", "lon", "address", "source", "source_channel",
	"organization_name", "organization_email", "supporter_count",
	"created_at", "updated_at",
}

// ComplaintRepository is the sqlx-backed store.
type ComplaintRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ ports.ComplaintRepository = (*ComplaintRepository)(nil)

// NewComplaintRepository wires a sql.DB.
func NewComplaintRepository(db *sql.DB) *ComplaintRepository {
	return &ComplaintRepository{
		db: sqlx.NewDb(db, "postgres"),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// RunMigrations ensures the complaints table and its indexes exist.
func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS complaints(
  id UUID PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'open',
  lat DOUBLE PRECISION,
  lon DOUBLE PRECISION,
  address TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  source_channel TEXT NOT NULL DEFAULT '',
  organization_name TEXT NOT NULL DEFAULT '',
  organization_email TEXT NOT NULL DEFAULT '',
  supporter_count INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_complaints_category_created ON complaints(category, created_at);
CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);
`
	_, err := db.Exec(initSQL)
	return err
}

// Save inserts a new complaint record.
func (r *ComplaintRepository) Save(ctx context.Context, c *domain.Complaint) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query, args, err := r.sb.Insert("complaints").
		Columns(complaintColumns...).
		Values(c.ID, c.Title, c.Description, c.Category, c.Status,
			c.Lat, c.Lon, c.Address, c.Source, c.SourceChannel,
			c.OrganizationName, c.OrganizationEmail, c.SupporterCount,
			c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert complaint %s: %w", c.ID, err)
	}
	return nil
}

// RecentByCategory returns same-category records created since the cutoff,
// newest first; this backs the duplicate-window check.
func (r *ComplaintRepository) RecentByCategory(ctx context.Context, category string, since time.Time) ([]domain.Complaint, error) {
	query, args, err := r.sb.Select(complaintColumns...).
		From("complaints").
		Where(sq.Eq{"category": category}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []domain.Complaint
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return rows, nil
}

// Active returns unresolved records with coordinates, the clustering input.
func (r *ComplaintRepository) Active(ctx context.Context) ([]domain.Complaint, error) {
	query, args, err := r.sb.Select(complaintColumns...).
		From("complaints").
		Where(sq.Eq{"status": []string{string(domain.StatusOpen), string(domain.StatusInProgress)}}).
		Where("lat IS NOT NULL AND lon IS NOT NULL").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []domain.Complaint
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query active: %w", err)
	}
	return rows, nil
}

// AddSupporter increments the supporter counter, the only mutation the core
// performs after creation.
func (r *ComplaintRepository) AddSupporter(ctx context.Context, id string) error {
	query, args, err := r.sb.Update("complaints").
		Set("supporter_count", sq.Expr("supporter_count + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("add supporter to %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("complaint %s not found", id)
	}
	return nil
}
