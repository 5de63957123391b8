package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
)

type orderEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderEventRepository creates the order event log
func NewOrderEventRepository(db *sql.DB, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderEventRepository) Record(ctx context.Context, e domain.OrderEvent) error {
	query := `
		INSERT INTO order_events (id, session_id, product_handle, variant_id, quantity, total, commission,
			net_payable, status, failure_kind, message, phone_fingerprint, pin_prefix, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.SessionID,
		e.ProductHandle,
		e.VariantID,
		e.Quantity,
		e.Total,
		e.Commission,
		e.NetPayable,
		string(e.Status),
		nullString(string(e.FailureKind)),
		nullString(e.Message),
		nullString(e.PhoneFingerprint),
		nullString(e.PINPrefix),
		e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to record order event", zap.Error(err))
		return err
	}
	return nil
}

// List returns the newest events first, optionally only those with status
func (r *orderEventRepository) List(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]*domain.OrderEvent, error) {
	query := `
		SELECT id, session_id, product_handle, variant_id, quantity, total, commission, net_payable,
			status, failure_kind, message, phone_fingerprint, pin_prefix, created_at
		FROM order_events
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		r.logger.Error("Failed to query order events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OrderEvent, 0, limit)
	for rows.Next() {
		var (
			e                                 domain.OrderEvent
			rawStatus                         string
			kind, msg, fingerprint, pinPrefix sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.ProductHandle,
			&e.VariantID,
			&e.Quantity,
			&e.Total,
			&e.Commission,
			&e.NetPayable,
			&rawStatus,
			&kind,
			&msg,
			&fingerprint,
			&pinPrefix,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Status = domain.SubmissionStatus(rawStatus)
		e.FailureKind = domain.FailureKind(kind.String)
		e.Message = msg.String
		e.PhoneFingerprint = fingerprint.String
		e.PINPrefix = pinPrefix.String
		events = append(events, &e)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
