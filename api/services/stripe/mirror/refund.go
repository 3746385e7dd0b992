package mirror

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
)

// Refund mirrors a Stripe refund.
type Refund struct {
	id      string
	version int
	refund  *stripe.Refund
	pending []Event
}

// CreateRefund starts a mirror for a refund created at the gateway.
func CreateRefund(id string, refund *stripe.Refund) *Refund {
	r := &Refund{id: id}
	r.recordThat(RefundCreated{Refund: refund})
	return r
}

// ReplayRefund folds an event history back into a snapshot.
func ReplayRefund(id string, events []Event) (*Refund, error) {
	r := &Refund{id: id}
	for _, event := range events {
		next, err := applyRefund(r.refund, event)
		if err != nil {
			return nil, err
		}
		r.refund = next
		r.version++
	}
	return r, nil
}

// StripeRefund returns the current snapshot of the gateway resource.
func (r *Refund) StripeRefund() *stripe.Refund { return r.refund }

func (r *Refund) AggregateID() string { return r.id }
func (r *Refund) Version() int        { return r.version }

func (r *Refund) recordThat(event Event) {
	next, err := applyRefund(r.refund, event)
	if err != nil {
		panic(err)
	}
	r.refund = next
	r.version++
	r.pending = append(r.pending, event)
}

func (r *Refund) releaseEvents() (events []Event, baseVersion int) {
	events = r.pending
	baseVersion = r.version - len(events)
	r.pending = nil
	return events, baseVersion
}

// applyRefund is the fold: (snapshot, event) -> snapshot.
func applyRefund(_ *stripe.Refund, event Event) (*stripe.Refund, error) {
	switch e := event.(type) {
	case RefundCreated:
		return e.Refund, nil
	default:
		return nil, fmt.Errorf("%w: %T for refund", ErrUnknownEvent, event)
	}
}
