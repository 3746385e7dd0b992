package mirror

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
)

// PaymentMethod mirrors a Stripe payment method attached to its customer.
type PaymentMethod struct {
	id      string
	version int
	method  *stripe.PaymentMethod
	pending []Event
}

// AttachPaymentMethod starts a mirror for a method newly attached at the gateway.
func AttachPaymentMethod(id string, method *stripe.PaymentMethod) *PaymentMethod {
	p := &PaymentMethod{id: id}
	p.recordThat(PaymentMethodAttached{Method: method})
	return p
}

// ReplayPaymentMethod folds an event history back into a snapshot.
func ReplayPaymentMethod(id string, events []Event) (*PaymentMethod, error) {
	p := &PaymentMethod{id: id}
	for _, event := range events {
		next, err := applyPaymentMethod(p.method, event)
		if err != nil {
			return nil, err
		}
		p.method = next
		p.version++
	}
	return p, nil
}

// Update records the gateway's view after a billing-details update.
func (p *PaymentMethod) Update(method *stripe.PaymentMethod) {
	p.recordThat(PaymentMethodUpdated{Method: method})
}

// StripePaymentMethod returns the current snapshot of the gateway resource.
func (p *PaymentMethod) StripePaymentMethod() *stripe.PaymentMethod { return p.method }

// TenderReference returns the gateway id charged when this method is the tender.
func (p *PaymentMethod) TenderReference() string { return p.method.ID }

// CustomerRef returns the gateway customer the method is attached to.
func (p *PaymentMethod) CustomerRef() string {
	if p.method.Customer == nil {
		return ""
	}
	return p.method.Customer.ID
}

func (p *PaymentMethod) AggregateID() string { return p.id }
func (p *PaymentMethod) Version() int        { return p.version }

func (p *PaymentMethod) recordThat(event Event) {
	next, err := applyPaymentMethod(p.method, event)
	if err != nil {
		panic(err)
	}
	p.method = next
	p.version++
	p.pending = append(p.pending, event)
}

func (p *PaymentMethod) releaseEvents() (events []Event, baseVersion int) {
	events = p.pending
	baseVersion = p.version - len(events)
	p.pending = nil
	return events, baseVersion
}

// applyPaymentMethod is the fold: (snapshot, event) -> snapshot.
func applyPaymentMethod(_ *stripe.PaymentMethod, event Event) (*stripe.PaymentMethod, error) {
	switch e := event.(type) {
	case PaymentMethodAttached:
		return e.Method, nil
	case PaymentMethodUpdated:
		return e.Method, nil
	default:
		return nil, fmt.Errorf("%w: %T for payment method", ErrUnknownEvent, event)
	}
}
