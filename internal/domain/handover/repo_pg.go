package handover

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handover/handover/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type handoverRepoPG struct{ pool *pgxpool.Pool }

func NewHandoverRepoPG(pool *pgxpool.Pool) HandoverRepository {
	return &handoverRepoPG{pool: pool}
}

func (r *handoverRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const handoverCols = `id, patient_id, from_shift_id, to_shift_id, window_date,
	sender_user_id, receiver_user_id, summary, cancel_reason, previous_handover_id,
	ready_at, started_at, accepted_at, completed_at, cancelled_at, expired_at,
	version, created_at, updated_at`

// activeCond selects records that still admit transitions.
const activeCond = `completed_at IS NULL AND cancelled_at IS NULL AND expired_at IS NULL`

func (r *handoverRepoPG) scanHandover(row pgx.Row) (*Handover, error) {
	var h Handover
	err := row.Scan(&h.ID, &h.PatientID, &h.FromShiftID, &h.ToShiftID, &h.WindowDate,
		&h.SenderUserID, &h.ReceiverUserID, &h.Summary, &h.CancelReason, &h.PreviousHandoverID,
		&h.ReadyAt, &h.StartedAt, &h.AcceptedAt, &h.CompletedAt, &h.CancelledAt, &h.ExpiredAt,
		&h.Version, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *handoverRepoPG) Create(ctx context.Context, h *Handover) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO handover (id, patient_id, from_shift_id, to_shift_id, window_date,
			sender_user_id, summary, previous_handover_id, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1)
		RETURNING created_at, updated_at`,
		h.ID, h.PatientID, h.FromShiftID, h.ToShiftID, h.WindowDate,
		h.SenderUserID, h.Summary, h.PreviousHandoverID).Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 on the partial unique index over the active window.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateWindow
		}
		return err
	}
	h.Version = 1
	return nil
}

func (r *handoverRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Handover, error) {
	h, err := r.scanHandover(r.conn(ctx).QueryRow(ctx,
		`SELECT `+handoverCols+` FROM handover WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (r *handoverRepoPG) GetLatestForPatient(ctx context.Context, patientID uuid.UUID) (*Handover, error) {
	h, err := r.scanHandover(r.conn(ctx).QueryRow(ctx,
		`SELECT `+handoverCols+` FROM handover WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`,
		patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

func (r *handoverRepoPG) GetActiveForPatientAndFromShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error) {
	h, err := r.scanHandover(r.conn(ctx).QueryRow(ctx,
		`SELECT `+handoverCols+` FROM handover
		 WHERE patient_id = $1 AND from_shift_id = $2 AND `+activeCond+`
		 ORDER BY created_at DESC LIMIT 1`,
		patientID, shiftID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

func (r *handoverRepoPG) GetActiveForPatientAndToShift(ctx context.Context, patientID uuid.UUID, shiftID string) (*Handover, error) {
	h, err := r.scanHandover(r.conn(ctx).QueryRow(ctx,
		`SELECT `+handoverCols+` FROM handover
		 WHERE patient_id = $1 AND to_shift_id = $2 AND `+activeCond+`
		 ORDER BY created_at DESC LIMIT 1`,
		patientID, shiftID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

func (r *handoverRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Handover, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM handover WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+handoverCols+` FROM handover WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Handover
	for rows.Next() {
		h, err := r.scanHandover(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}

func (r *handoverRepoPG) MarkReady(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET ready_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ready_at IS NULL
		  AND summary IS NOT NULL AND summary <> ''
		  AND `+activeCond, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) ReturnToDraft(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET ready_at = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ready_at IS NOT NULL AND started_at IS NULL
		  AND `+activeCond, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) MarkStarted(ctx context.Context, id, receiverUserID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET started_at = NOW(), receiver_user_id = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ready_at IS NOT NULL AND started_at IS NULL
		  AND `+activeCond, id, receiverUserID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) MarkAccepted(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET accepted_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND started_at IS NOT NULL AND accepted_at IS NULL
		  AND `+activeCond, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) MarkCompleted(ctx context.Context, id, receiverUserID uuid.UUID) (bool, error) {
	// Completing stamps any lifecycle timestamps the deployment skipped
	// (start, accept) in the same write, so the ordering invariant holds
	// however many discrete steps were exposed.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET started_at = COALESCE(started_at, NOW()),
		    accepted_at = COALESCE(accepted_at, NOW()),
		    completed_at = NOW(),
		    receiver_user_id = COALESCE(receiver_user_id, $2),
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ready_at IS NOT NULL
		  AND `+activeCond, id, receiverUserID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET cancelled_at = NOW(), cancel_reason = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND `+activeCond, id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *handoverRepoPG) ExpireStale(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE handover
		SET expired_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE window_date < $1
		  AND started_at IS NULL AND accepted_at IS NULL
		  AND `+activeCond, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
