package repository

import (
	"context"
	"errors"
	"time"

	"funnel_backend/internal/followups/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Lead struct {
	ID                uuid.UUID
	Name              string
	Email             *string
	Phone             *string
	Stage             domain.Stage
	Notes             *string
	SilencedUntil     *time.Time
	LastInteractionAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Ref projects a lead onto the slice the prediction engine consumes.
// CreatedAt is the reference timestamp for all offset computation.
func (l Lead) Ref() domain.LeadRef {
	return domain.LeadRef{
		ID:          l.ID,
		Name:        l.Name,
		Stage:       l.Stage,
		ReferenceAt: l.CreatedAt,
	}
}

type CreateLeadParams struct {
	Name  string
	Email *string
	Phone *string
	Stage domain.Stage
	Notes *string
}

const leadColumns = `id, name, email, phone, stage, notes, silenced_until, last_interaction_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Stage,
		&lead.Notes, &lead.SilencedUntil, &lead.LastInteractionAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, stage, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+leadColumns,
		params.Name, params.Email, params.Phone, string(params.Stage), params.Notes,
	))
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// ListLeads returns leads ordered by creation time, optionally filtered by stage.
func (r *Repository) ListLeads(ctx context.Context, stage *domain.Stage) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE deleted_at IS NULL`
	args := []any{}
	if stage != nil {
		query += ` AND stage = $1`
		args = append(args, string(*stage))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListLeadRefs returns the prediction-engine projection of all live leads.
func (r *Repository) ListLeadRefs(ctx context.Context) ([]domain.LeadRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, stage, created_at
		FROM leads WHERE deleted_at IS NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]domain.LeadRef, 0)
	for rows.Next() {
		var ref domain.LeadRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Stage, &ref.ReferenceAt); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type UpdateLeadParams struct {
	Notes             *string
	SilencedUntil     *time.Time
	LastInteractionAt *time.Time
}

func (r *Repository) UpdateLead(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			notes = COALESCE($2, notes),
			silenced_until = COALESCE($3, silenced_until),
			last_interaction_at = COALESCE($4, last_interaction_at),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+leadColumns,
		id, params.Notes, params.SilencedUntil, params.LastInteractionAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// UpdateLeadStage atomically moves a lead to a new stage and returns the
// updated lead together with the stage it left. The row lock makes the
// read-old/write-new pair atomic with respect to concurrent transitions,
// and UpdatedAt on the returned lead is the transition timestamp.
func (r *Repository) UpdateLeadStage(ctx context.Context, id uuid.UUID, newStage domain.Stage) (Lead, domain.Stage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var oldStage string
	err = tx.QueryRow(ctx,
		`SELECT stage FROM leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		id,
	).Scan(&oldStage)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, "", ErrNotFound
	}
	if err != nil {
		return Lead{}, "", err
	}

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET stage = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, string(newStage),
	))
	if err != nil {
		return Lead{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, "", err
	}
	return lead, domain.Stage(oldStage), nil
}

// SoftDeleteLead marks a lead as deleted. Queue cleanup is the reconciler's job.
func (r *Repository) SoftDeleteLead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
