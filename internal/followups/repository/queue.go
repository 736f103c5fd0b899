package repository

import (
	"context"
	"errors"
	"time"

	"funnel_backend/internal/followups/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Status is the follow-up queue item lifecycle state. scheduled -> sent
// (dispatcher only) and scheduled -> canceled (reconciler or lead deletion)
// are the only transitions; both are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCanceled  Status = "canceled"
	StatusSent      Status = "sent"
)

type Item struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	TemplateKey   string
	Stage         domain.Stage
	OffsetSeconds int64
	ScheduledFor  time.Time
	Status        Status
	CancelReason  *string
	CanceledAt    *time.Time
	SentAt        *time.Time
	DispatchedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type InsertItemParams struct {
	LeadID        uuid.UUID
	TemplateKey   string
	Stage         domain.Stage
	OffsetSeconds int64
	ScheduledFor  time.Time
}

const itemColumns = `id, lead_id, template_key, stage, offset_seconds, scheduled_for,
	status, cancel_reason, canceled_at, sent_at, dispatched_at, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.LeadID, &item.TemplateKey, &item.Stage, &item.OffsetSeconds,
		&item.ScheduledFor, &item.Status, &item.CancelReason, &item.CanceledAt,
		&item.SentAt, &item.DispatchedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// InsertScheduled enqueues a follow-up instance. The partial unique index on
// (lead_id, template_key) WHERE status = 'scheduled' makes the idempotency
// guarantee atomic at the store; a duplicate insert is a no-op and reports
// created = false.
func (r *Repository) InsertScheduled(ctx context.Context, params InsertItemParams) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO followup_queue (lead_id, template_key, stage, offset_seconds, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, 'scheduled')
		ON CONFLICT (lead_id, template_key) WHERE status = 'scheduled' DO NOTHING
	`, params.LeadID, params.TemplateKey, string(params.Stage), params.OffsetSeconds, params.ScheduledFor)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CancelScheduledForLead cancels the lead's scheduled items created at or
// before the transition timestamp, skipping items whose bound stage equals
// protectedStage (empty means nothing is protected). Items created after the
// transition are never touched.
func (r *Repository) CancelScheduledForLead(ctx context.Context, leadID uuid.UUID, reason domain.CancelReason, before time.Time, protectedStage domain.Stage) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followup_queue
		SET status = 'canceled', cancel_reason = $2, canceled_at = now(), updated_at = now()
		WHERE lead_id = $1
		  AND status = 'scheduled'
		  AND created_at <= $3
		  AND ($4 = '' OR stage <> $4)
	`, leadID, reason.Code(), before, string(protectedStage))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CancelAllScheduledForLead cancels every scheduled item for the lead.
// Used on lead deletion; never followed by an enqueue.
func (r *Repository) CancelAllScheduledForLead(ctx context.Context, leadID uuid.UUID, reason domain.CancelReason) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followup_queue
		SET status = 'canceled', cancel_reason = $2, canceled_at = now(), updated_at = now()
		WHERE lead_id = $1 AND status = 'scheduled'
	`, leadID, reason.Code())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListItemsForLead returns the lead's queue: scheduled items first ordered by
// scheduled time, then resolved items ordered by scheduled time only.
func (r *Repository) ListItemsForLead(ctx context.Context, leadID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM followup_queue
		WHERE lead_id = $1
		ORDER BY (status <> 'scheduled') ASC, scheduled_for ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TemplateCount is the number of scheduled items per template key.
type TemplateCount struct {
	TemplateKey string
	Scheduled   int
}

func (r *Repository) ScheduledCountsByTemplate(ctx context.Context) ([]TemplateCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT template_key, COUNT(*)
		FROM followup_queue
		WHERE status = 'scheduled'
		GROUP BY template_key
		ORDER BY template_key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]TemplateCount, 0)
	for rows.Next() {
		var count TemplateCount
		if err := rows.Scan(&count.TemplateKey, &count.Scheduled); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// ClaimDispatchable picks undispatched scheduled items in due order and
// stamps them as handed to the dispatcher. Status stays scheduled so a
// cancellation can still win until the moment of sending.
func (r *Repository) ClaimDispatchable(ctx context.Context, limit int) ([]Item, error) {
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM followup_queue
		WHERE status = 'scheduled' AND dispatched_at IS NULL
		ORDER BY scheduled_for ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE followup_queue q
	SET dispatched_at = now(), updated_at = now()
	FROM cte
	WHERE q.id = cte.id
	RETURNING `+qualifiedItemColumns(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// ReleaseDispatch returns an item to the dispatcher's claimable set after a
// failed hand-off.
func (r *Repository) ReleaseDispatch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE followup_queue
		SET dispatched_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	return err
}

// DispatchView is everything the send worker needs for one queue item.
type DispatchView struct {
	Item     Item
	LeadName string
	Content  string
}

func (r *Repository) GetDispatchView(ctx context.Context, id uuid.UUID) (DispatchView, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+qualifiedItemColumns()+`, l.name, t.content
		FROM followup_queue q
		JOIN leads l ON l.id = q.lead_id
		JOIN followup_templates t ON t.key = q.template_key
		WHERE q.id = $1
	`, id)

	var view DispatchView
	err := row.Scan(
		&view.Item.ID, &view.Item.LeadID, &view.Item.TemplateKey, &view.Item.Stage,
		&view.Item.OffsetSeconds, &view.Item.ScheduledFor, &view.Item.Status,
		&view.Item.CancelReason, &view.Item.CanceledAt, &view.Item.SentAt,
		&view.Item.DispatchedAt, &view.Item.CreatedAt, &view.Item.UpdatedAt,
		&view.LeadName, &view.Content,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DispatchView{}, ErrItemNotFound
	}
	if err != nil {
		return DispatchView{}, err
	}
	return view, nil
}

// MarkSent flips scheduled -> sent. Returns false when the item was canceled
// (or already sent) in the meantime; the dispatcher treats that as a skip.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followup_queue
		SET status = 'sent', sent_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// LastSentAt returns the most recent send timestamp, the store-level clock
// the global send spacing is read from.
func (r *Repository) LastSentAt(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(sent_at) FROM followup_queue WHERE status = 'sent'`).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

func qualifiedItemColumns() string {
	return `q.id, q.lead_id, q.template_key, q.stage, q.offset_seconds, q.scheduled_for,
	q.status, q.cancel_reason, q.canceled_at, q.sent_at, q.dispatched_at, q.created_at, q.updated_at`
}
