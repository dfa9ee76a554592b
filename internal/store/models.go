package store

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Payment rows are append-only; the only status ever written in this flow.
const PaymentStatusCompleted = "COMPLETED"

type CheckoutSession struct {
	ID                uuid.UUID
	UserID            int64
	CourseID          *int64
	Provider          string
	ProviderReference string
	AmountCents       int64
	Currency          string
	Status            string
	CreatedAt         time.Time
}

type CreateSessionInput struct {
	UserID            int64
	CourseID          *int64
	Provider          string
	ProviderReference string
	AmountCents       int64
	Currency          string
}

type Payment struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	UserID      int64
	CourseID    *int64
	AmountCents int64
	Currency    string
	Method      string
	Status      string
	CreatedAt   time.Time
}

type Enrollment struct {
	ID         int64
	StudentID  int64
	CourseID   int64
	EnrolledAt time.Time
}

type ReconcilePaidInput struct {
	Provider    string
	Reference   string
	AmountCents int64
	Currency    string
}

// ReconcileResult reports what a webhook delivery actually did. Duplicate
// means the session was already terminal and no rows were written.
type ReconcileResult struct {
	Session   CheckoutSession
	Payment   Payment
	Duplicate bool
}
