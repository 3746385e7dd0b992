package domain

import (
	"context"
	"errors"
)

// ErrCannotReconstitute indicates an aggregate has no event history or its
// history failed to replay.
var ErrCannotReconstitute = errors.New("cannot reconstitute aggregate")

// The domain aggregates live outside this module; the sagas only ever touch
// them along the compensating paths. The happy path is evidenced by the
// existence of the mirror aggregate, never by mutating the domain side.

// PaymentIntent is the domain payment intent's compensation surface.
type PaymentIntent interface {
	ID() string
	Decline(reason string)
}

// PaymentMethod is the domain payment method's compensation surface.
type PaymentMethod interface {
	ID() string
	Fail()
	Success()
}

// Refund is the domain refund's compensation surface.
type Refund interface {
	ID() string
	Decline(reason string)
	Success()
}

// Token is the domain token's compensation surface.
type Token interface {
	ID() string
	Decline(reason string)
}

// PaymentIntentRepository retrieves and persists domain payment intents.
type PaymentIntentRepository interface {
	Retrieve(ctx context.Context, id string) (PaymentIntent, error)
	Persist(ctx context.Context, intent PaymentIntent) error
}

// PaymentMethodRepository retrieves and persists domain payment methods.
type PaymentMethodRepository interface {
	Retrieve(ctx context.Context, id string) (PaymentMethod, error)
	Persist(ctx context.Context, method PaymentMethod) error
}

// RefundRepository retrieves and persists domain refunds.
type RefundRepository interface {
	Retrieve(ctx context.Context, id string) (Refund, error)
	Persist(ctx context.Context, refund Refund) error
}

// TokenRepository retrieves and persists domain tokens.
type TokenRepository interface {
	Retrieve(ctx context.Context, id string) (Token, error)
	Persist(ctx context.Context, token Token) error
}
