package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/eventstore"
)

// The repositories reconstitute mirror aggregates from the event store and
// append their uncommitted events back, using the aggregate version as the
// optimistic concurrency expectation.

func loadEvents(ctx context.Context, store eventstore.Store, id string) ([]Event, error) {
	records, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNoEvents) {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCannotReconstitute, id, err)
		}
		return nil, err
	}
	events := make([]Event, 0, len(records))
	for _, record := range records {
		event, err := UnmarshalEvent(record.EventName, record.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCannotReconstitute, id, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func appendEvents(ctx context.Context, store eventstore.Store, id string, events []Event, baseVersion int) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]eventstore.Record, 0, len(events))
	for _, event := range events {
		payload, err := MarshalEvent(event)
		if err != nil {
			return err
		}
		records = append(records, eventstore.Record{
			EventName:  event.EventName(),
			Payload:    payload,
			RecordedAt: time.Now().UTC(),
		})
	}
	if err := store.Append(ctx, id, baseVersion, records); err != nil {
		// A conflict at the very first version means someone else already
		// created this mirror, not that our snapshot went stale.
		if baseVersion == 0 && errors.Is(err, eventstore.ErrVersionConflict) {
			return fmt.Errorf("%w: %s", ErrMirrorExists, id)
		}
		return err
	}
	return nil
}

// PaymentIntentRepository persists payment intent mirrors.
type PaymentIntentRepository struct{ store eventstore.Store }

func NewPaymentIntentRepository(store eventstore.Store) *PaymentIntentRepository {
	return &PaymentIntentRepository{store: store}
}

func (r *PaymentIntentRepository) Retrieve(ctx context.Context, id string) (*PaymentIntent, error) {
	events, err := loadEvents(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return ReplayPaymentIntent(id, events)
}

func (r *PaymentIntentRepository) Persist(ctx context.Context, intent *PaymentIntent) error {
	events, baseVersion := intent.releaseEvents()
	return appendEvents(ctx, r.store, intent.AggregateID(), events, baseVersion)
}

// Exists reports whether a mirror already exists for the id. Used as the
// idempotency probe before creating a mirror on (possibly redelivered)
// creation events.
func (r *PaymentIntentRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.store, id)
}

// PaymentMethodRepository persists payment method mirrors.
type PaymentMethodRepository struct{ store eventstore.Store }

func NewPaymentMethodRepository(store eventstore.Store) *PaymentMethodRepository {
	return &PaymentMethodRepository{store: store}
}

func (r *PaymentMethodRepository) Retrieve(ctx context.Context, id string) (*PaymentMethod, error) {
	events, err := loadEvents(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return ReplayPaymentMethod(id, events)
}

func (r *PaymentMethodRepository) Persist(ctx context.Context, method *PaymentMethod) error {
	events, baseVersion := method.releaseEvents()
	return appendEvents(ctx, r.store, method.AggregateID(), events, baseVersion)
}

func (r *PaymentMethodRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.store, id)
}

// RefundRepository persists refund mirrors.
type RefundRepository struct{ store eventstore.Store }

func NewRefundRepository(store eventstore.Store) *RefundRepository {
	return &RefundRepository{store: store}
}

func (r *RefundRepository) Retrieve(ctx context.Context, id string) (*Refund, error) {
	events, err := loadEvents(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return ReplayRefund(id, events)
}

func (r *RefundRepository) Persist(ctx context.Context, refund *Refund) error {
	events, baseVersion := refund.releaseEvents()
	return appendEvents(ctx, r.store, refund.AggregateID(), events, baseVersion)
}

func (r *RefundRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.store, id)
}

// TokenRepository persists token mirrors.
type TokenRepository struct{ store eventstore.Store }

func NewTokenRepository(store eventstore.Store) *TokenRepository {
	return &TokenRepository{store: store}
}

func (r *TokenRepository) Retrieve(ctx context.Context, id string) (*Token, error) {
	events, err := loadEvents(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return ReplayToken(id, events)
}

func (r *TokenRepository) Persist(ctx context.Context, token *Token) error {
	events, baseVersion := token.releaseEvents()
	return appendEvents(ctx, r.store, token.AggregateID(), events, baseVersion)
}

func (r *TokenRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.store, id)
}

func exists(ctx context.Context, store eventstore.Store, id string) (bool, error) {
	_, err := store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNoEvents) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
