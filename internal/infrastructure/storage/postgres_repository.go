package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // postgres driver

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

const artifactTable = "queued_compliance_artifacts"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	artifactColumns = []string{
		"compliance_id",
		"compliance_name_origin",
		"compliance_name_translated",
		"url",
		"status",
		"created_at",
	}

	returningClause = "RETURNING " + strings.Join(artifactColumns, ", ")
)

// PostgresRepository persists queued compliance artifacts into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArtifactStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the queue table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS queued_compliance_artifacts (
        compliance_id              TEXT PRIMARY KEY,
        compliance_name_origin     TEXT NOT NULL,
        compliance_name_translated TEXT,
        url                        TEXT,
        status                     TEXT NOT NULL DEFAULT 'pending',
        created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return storeErr("ensure schema", err)
	}
	return nil
}

// Enqueue inserts a new artifact row.
func (r *PostgresRepository) Enqueue(ctx context.Context, artifact domain.Artifact) (domain.Artifact, error) {
	if artifact.Status == "" {
		artifact.Status = domain.StatusPending
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql.Insert(artifactTable).
		Columns(artifactColumns...).
		Values(
			artifact.ID,
			artifact.NameOrigin,
			nullable(artifact.NameTranslated),
			nullable(artifact.URL),
			artifact.Status,
			artifact.CreatedAt,
		).
		ToSql()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Artifact{}, storeErr("insert artifact", err)
	}

	return artifact, nil
}

// Get loads a single artifact by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.Artifact, error) {
	query, args, err := psql.Select(artifactColumns...).
		From(artifactTable).
		Where(sq.Eq{"compliance_id": id}).
		ToSql()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("build select: %w", err)
	}

	return r.scanRow(r.db.QueryRowContext(ctx, query, args...), "query artifact")
}

// List returns artifacts matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Artifact, error) {
	builder := psql.Select(artifactColumns...).
		From(artifactTable).
		OrderBy("created_at DESC")
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query queue", err)
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, storeErr("scan artifact", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("rows iteration", err)
	}

	return artifacts, nil
}

// SetStatus updates the status of an existing row and returns the new snapshot.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Artifact, error) {
	return r.updateReturning(ctx, id, "update status", map[string]any{"status": status})
}

// SetURL replaces the source location; an empty url clears the column.
func (r *PostgresRepository) SetURL(ctx context.Context, id, url string) (domain.Artifact, error) {
	return r.updateReturning(ctx, id, "update url", map[string]any{"url": nullable(url)})
}

// SetTranslatedName replaces the display name; an empty name clears the column.
func (r *PostgresRepository) SetTranslatedName(ctx context.Context, id, name string) (domain.Artifact, error) {
	return r.updateReturning(ctx, id, "update name", map[string]any{"compliance_name_translated": nullable(name)})
}

// Delete removes the row permanently and returns its last snapshot.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (domain.Artifact, error) {
	query, args, err := psql.Delete(artifactTable).
		Where(sq.Eq{"compliance_id": id}).
		Suffix(returningClause).
		ToSql()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("build delete: %w", err)
	}

	return r.scanRow(r.db.QueryRowContext(ctx, query, args...), "delete artifact")
}

// ClaimApproved is the conditional approved -> in_progress transition that
// guards against concurrent runs scraping the same artifact twice.
func (r *PostgresRepository) ClaimApproved(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Update(artifactTable).
		Set("status", domain.StatusInProgress).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"compliance_id": id, "status": domain.StatusApproved}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storeErr("claim artifact", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storeErr("claim rows affected", err)
	}
	return affected == 1, nil
}

// ReclaimStale reverts in_progress rows untouched for longer than olderThan.
func (r *PostgresRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	query, args, err := psql.Update(artifactTable).
		Set("status", domain.StatusApproved).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": domain.StatusInProgress}).
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reclaim: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeErr("reclaim stale", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("reclaim rows affected", err)
	}
	return int(affected), nil
}

func (r *PostgresRepository) updateReturning(ctx context.Context, id, op string, sets map[string]any) (domain.Artifact, error) {
	builder := psql.Update(artifactTable).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"compliance_id": id}).
		Suffix(returningClause)
	for column, value := range sets {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("build update: %w", err)
	}

	return r.scanRow(r.db.QueryRowContext(ctx, query, args...), op)
}

func (r *PostgresRepository) scanRow(row *sql.Row, op string) (domain.Artifact, error) {
	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Artifact{}, domain.ErrNotFound
		}
		return domain.Artifact{}, storeErr(op, err)
	}
	return artifact, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArtifact(row scannable) (domain.Artifact, error) {
	var (
		artifact   domain.Artifact
		translated sql.NullString
		url        sql.NullString
	)

	err := row.Scan(
		&artifact.ID,
		&artifact.NameOrigin,
		&translated,
		&url,
		&artifact.Status,
		&artifact.CreatedAt,
	)
	if err != nil {
		return domain.Artifact{}, err
	}

	artifact.NameTranslated = translated.String
	artifact.URL = url.String
	return artifact, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}
