package repository

import (
	"context"
	"errors"
	"time"

	"funnel_backend/internal/followups/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Template struct {
	Key           string
	Stage         domain.Stage
	OffsetSeconds int64
	Content       string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Domain projects the row onto the prediction-engine template type.
func (t Template) Domain() domain.Template {
	return domain.Template{
		Key:           t.Key,
		Stage:         t.Stage,
		OffsetSeconds: t.OffsetSeconds,
		Content:       t.Content,
		Active:        t.Active,
	}
}

type CreateTemplateParams struct {
	Key           string
	Stage         domain.Stage
	OffsetSeconds int64
	Content       string
	Active        bool
}

const templateColumns = `key, stage, offset_seconds, content, active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var tpl Template
	err := row.Scan(
		&tpl.Key, &tpl.Stage, &tpl.OffsetSeconds, &tpl.Content, &tpl.Active,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	return tpl, err
}

// CreateTemplate inserts a template. The unique constraint on (stage,
// offset_seconds) surfaces as ErrDuplicateTemplate; no partial write occurs.
func (r *Repository) CreateTemplate(ctx context.Context, params CreateTemplateParams) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO followup_templates (key, stage, offset_seconds, content, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+templateColumns,
		params.Key, string(params.Stage), params.OffsetSeconds, params.Content, params.Active,
	))
	if isUniqueViolation(err) {
		return Template{}, ErrDuplicateTemplate
	}
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (r *Repository) GetTemplateByKey(ctx context.Context, key string) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM followup_templates WHERE key = $1
	`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM followup_templates
		ORDER BY stage ASC, offset_seconds ASC
	`)
}

func (r *Repository) ListActiveTemplates(ctx context.Context) ([]Template, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM followup_templates
		WHERE active = true
		ORDER BY stage ASC, offset_seconds ASC
	`)
}

func (r *Repository) ListActiveTemplatesByStage(ctx context.Context, stage domain.Stage) ([]Template, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM followup_templates
		WHERE active = true AND stage = $1
		ORDER BY offset_seconds ASC
	`, string(stage))
}

// UpdateTemplate mutates only content and active. Stage and offset are fixed
// at creation.
type UpdateTemplateParams struct {
	Content *string
	Active  *bool
}

func (r *Repository) UpdateTemplate(ctx context.Context, key string, params UpdateTemplateParams) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		UPDATE followup_templates SET
			content = COALESCE($2, content),
			active = COALESCE($3, active),
			updated_at = now()
		WHERE key = $1
		RETURNING `+templateColumns,
		key, params.Content, params.Active,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (r *Repository) queryTemplates(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
