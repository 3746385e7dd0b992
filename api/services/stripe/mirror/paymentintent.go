package mirror

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
)

// statusesAfterCreation are the only statuses a freshly authorized intent
// may report. Anything else means the gateway and the saga disagree about
// what "authorized" means.
var statusesAfterCreation = map[stripe.PaymentIntentStatus]bool{
	stripe.PaymentIntentStatusRequiresAction:        true,
	stripe.PaymentIntentStatusRequiresCapture:       true,
	stripe.PaymentIntentStatusRequiresConfirmation:  true,
	stripe.PaymentIntentStatusRequiresPaymentMethod: true,
}

// PaymentIntent mirrors a Stripe payment intent. The snapshot is always the
// resource carried by the last applied event.
type PaymentIntent struct {
	id      string
	version int
	intent  *stripe.PaymentIntent
	pending []Event
}

// CreatePaymentIntent starts a mirror for a newly authorized intent.
func CreatePaymentIntent(id string, intent *stripe.PaymentIntent) (*PaymentIntent, error) {
	if !statusesAfterCreation[intent.Status] {
		return nil, fmt.Errorf("%w: payment intent %s is not created, status %q", ErrStatusInvariant, id, intent.Status)
	}
	p := &PaymentIntent{id: id}
	p.recordThat(PaymentIntentCreated{Intent: intent})
	return p, nil
}

// ReplayPaymentIntent folds an event history back into a snapshot.
func ReplayPaymentIntent(id string, events []Event) (*PaymentIntent, error) {
	p := &PaymentIntent{id: id}
	for _, event := range events {
		next, err := applyPaymentIntent(p.snapshot(), event)
		if err != nil {
			return nil, err
		}
		p.intent = next
		p.version++
	}
	return p, nil
}

// Capture records the gateway's capture result. The gateway must actually
// report the terminal status; a mismatch is an integration bug.
func (p *PaymentIntent) Capture(intent *stripe.PaymentIntent) error {
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: payment intent %s is not captured, status %q", ErrStatusInvariant, p.id, intent.Status)
	}
	p.recordThat(PaymentIntentSucceeded{Intent: intent})
	return nil
}

// Cancel records the gateway's cancellation result.
func (p *PaymentIntent) Cancel(intent *stripe.PaymentIntent) error {
	if intent.Status != stripe.PaymentIntentStatusCanceled {
		return fmt.Errorf("%w: payment intent %s is not canceled, status %q", ErrStatusInvariant, p.id, intent.Status)
	}
	p.recordThat(PaymentIntentCanceled{Intent: intent})
	return nil
}

// StripePaymentIntent returns the current snapshot of the gateway resource.
func (p *PaymentIntent) StripePaymentIntent() *stripe.PaymentIntent { return p.intent }

func (p *PaymentIntent) AggregateID() string { return p.id }
func (p *PaymentIntent) Version() int        { return p.version }

func (p *PaymentIntent) recordThat(event Event) {
	next, err := applyPaymentIntent(p.snapshot(), event)
	if err != nil {
		// recordThat is only reached after the transition's own
		// precondition passed, so the fold cannot reject the event.
		panic(err)
	}
	p.intent = next
	p.version++
	p.pending = append(p.pending, event)
}

func (p *PaymentIntent) snapshot() *stripe.PaymentIntent { return p.intent }

// releaseEvents hands the uncommitted events to the repository and resets
// the pending list. baseVersion is the version before they were applied.
func (p *PaymentIntent) releaseEvents() (events []Event, baseVersion int) {
	events = p.pending
	baseVersion = p.version - len(events)
	p.pending = nil
	return events, baseVersion
}

// applyPaymentIntent is the fold: (snapshot, event) -> snapshot.
func applyPaymentIntent(_ *stripe.PaymentIntent, event Event) (*stripe.PaymentIntent, error) {
	switch e := event.(type) {
	case PaymentIntentCreated:
		return e.Intent, nil
	case PaymentIntentCanceled:
		return e.Intent, nil
	case PaymentIntentSucceeded:
		return e.Intent, nil
	default:
		return nil, fmt.Errorf("%w: %T for payment intent", ErrUnknownEvent, event)
	}
}
