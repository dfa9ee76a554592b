package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) CreateSession(ctx context.Context, input CreateSessionInput) (CheckoutSession, error) {
	var cs CheckoutSession
	err := s.pool.QueryRow(ctx, `
		INSERT INTO checkout_sessions (id, user_id, course_id, provider, provider_reference, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, course_id, provider, provider_reference, amount_cents, currency, status, created_at
	`,
		uuid.New(),
		input.UserID,
		input.CourseID,
		input.Provider,
		input.ProviderReference,
		input.AmountCents,
		input.Currency,
		StatusPending,
	).Scan(
		&cs.ID,
		&cs.UserID,
		&cs.CourseID,
		&cs.Provider,
		&cs.ProviderReference,
		&cs.AmountCents,
		&cs.Currency,
		&cs.Status,
		&cs.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return CheckoutSession{}, ErrReferenceExists
		}
		return CheckoutSession{}, err
	}
	return cs, nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (CheckoutSession, error) {
	var cs CheckoutSession
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, course_id, provider, provider_reference, amount_cents, currency, status, created_at
		FROM checkout_sessions
		WHERE id = $1
	`, id).Scan(
		&cs.ID,
		&cs.UserID,
		&cs.CourseID,
		&cs.Provider,
		&cs.ProviderReference,
		&cs.AmountCents,
		&cs.Currency,
		&cs.Status,
		&cs.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckoutSession{}, ErrNotFound
		}
		return CheckoutSession{}, err
	}
	return cs, nil
}

// ReconcilePaid resolves a successful payment notification: the session moves
// pending -> completed and the Payment and Enrollment rows are written in the
// same transaction. A session already in a terminal state is acknowledged as a
// duplicate delivery without further writes.
func (s *Store) ReconcilePaid(ctx context.Context, input ReconcilePaidInput) (ReconcileResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReconcileResult{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cs, err := lockSessionByReference(ctx, tx, input.Provider, input.Reference)
	if err != nil {
		return ReconcileResult{}, err
	}

	if cs.Status != StatusPending {
		if err := recordWebhookEvent(ctx, tx, input.Provider, input.Reference, "paid", true); err != nil {
			return ReconcileResult{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return ReconcileResult{}, err
		}
		return ReconcileResult{Session: cs, Duplicate: true}, nil
	}

	if cs.CourseID == nil {
		return ReconcileResult{}, ErrMissingCourse
	}

	tag, err := tx.Exec(ctx,
		"UPDATE checkout_sessions SET status = $1 WHERE id = $2 AND status = $3",
		StatusCompleted, cs.ID, StatusPending,
	)
	if err != nil {
		return ReconcileResult{}, err
	}
	if tag.RowsAffected() != 1 {
		// Cannot happen while we hold the row lock, but a stale read here
		// must never mint a second payment.
		return ReconcileResult{Session: cs, Duplicate: true}, tx.Commit(ctx)
	}
	cs.Status = StatusCompleted

	p, err := insertPayment(ctx, tx, cs, input)
	if err != nil {
		return ReconcileResult{}, err
	}

	if err := insertEnrollment(ctx, tx, cs.UserID, *cs.CourseID); err != nil {
		return ReconcileResult{}, err
	}

	if err := recordWebhookEvent(ctx, tx, input.Provider, input.Reference, "paid", false); err != nil {
		return ReconcileResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReconcileResult{}, err
	}

	return ReconcileResult{Session: cs, Payment: p}, nil
}

// ReconcileCanceled resolves a failed or expired notification: the session
// moves pending -> canceled and nothing else is written.
func (s *Store) ReconcileCanceled(ctx context.Context, provider, reference, outcome string) (ReconcileResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReconcileResult{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cs, err := lockSessionByReference(ctx, tx, provider, reference)
	if err != nil {
		return ReconcileResult{}, err
	}

	if cs.Status != StatusPending {
		if err := recordWebhookEvent(ctx, tx, provider, reference, outcome, true); err != nil {
			return ReconcileResult{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return ReconcileResult{}, err
		}
		return ReconcileResult{Session: cs, Duplicate: true}, nil
	}

	_, err = tx.Exec(ctx,
		"UPDATE checkout_sessions SET status = $1 WHERE id = $2 AND status = $3",
		StatusCanceled, cs.ID, StatusPending,
	)
	if err != nil {
		return ReconcileResult{}, err
	}
	cs.Status = StatusCanceled

	if err := recordWebhookEvent(ctx, tx, provider, reference, outcome, false); err != nil {
		return ReconcileResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReconcileResult{}, err
	}

	return ReconcileResult{Session: cs}, nil
}

// lockSessionByReference resolves the provider's reference to a session row
// and locks it for the rest of the transaction. When a canceled session's
// reference has been reused, the live row wins.
func lockSessionByReference(ctx context.Context, tx pgx.Tx, provider, reference string) (CheckoutSession, error) {
	var cs CheckoutSession
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, course_id, provider, provider_reference, amount_cents, currency, status, created_at
		FROM checkout_sessions
		WHERE provider = $1 AND provider_reference = $2
		ORDER BY CASE status WHEN 'pending' THEN 0 WHEN 'completed' THEN 1 ELSE 2 END, created_at DESC
		LIMIT 1
		FOR UPDATE
	`, provider, reference).Scan(
		&cs.ID,
		&cs.UserID,
		&cs.CourseID,
		&cs.Provider,
		&cs.ProviderReference,
		&cs.AmountCents,
		&cs.Currency,
		&cs.Status,
		&cs.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckoutSession{}, ErrSessionNotFound
		}
		return CheckoutSession{}, err
	}
	return cs, nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, cs CheckoutSession, input ReconcilePaidInput) (Payment, error) {
	var p Payment
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (id, session_id, user_id, course_id, amount_cents, currency, method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, session_id, user_id, course_id, amount_cents, currency, method, status, created_at
	`,
		uuid.New(),
		cs.ID,
		cs.UserID,
		cs.CourseID,
		input.AmountCents,
		input.Currency,
		input.Provider,
		PaymentStatusCompleted,
	).Scan(
		&p.ID,
		&p.SessionID,
		&p.UserID,
		&p.CourseID,
		&p.AmountCents,
		&p.Currency,
		&p.Method,
		&p.Status,
		&p.CreatedAt,
	)
	return p, err
}

func insertEnrollment(ctx context.Context, tx pgx.Tx, studentID, courseID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO enrollments (student_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, course_id) DO NOTHING
	`, studentID, courseID)
	return err
}

func recordWebhookEvent(ctx context.Context, tx pgx.Tx, provider, reference, outcome string, duplicate bool) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO webhook_events (provider, provider_reference, outcome, duplicate)
		VALUES ($1, $2, $3, $4)
	`, provider, reference, outcome, duplicate)
	return err
}

func isUniqueViolation(err error) bool {
	pgErr, ok := err.(*pgconn.PgError)
	if !ok {
		return false
	}
	return pgErr.Code == "23505"
}
