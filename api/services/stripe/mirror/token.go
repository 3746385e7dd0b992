package mirror

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
)

// Token mirrors a Stripe single-use token. Single-use enforcement belongs
// to the domain token aggregate, not to this mirror.
type Token struct {
	id      string
	version int
	token   *stripe.Token
	pending []Event
}

// CreateToken starts a mirror for a token created at the gateway.
func CreateToken(id string, token *stripe.Token) *Token {
	t := &Token{id: id}
	t.recordThat(TokenCreated{Token: token})
	return t
}

// ReplayToken folds an event history back into a snapshot.
func ReplayToken(id string, events []Event) (*Token, error) {
	t := &Token{id: id}
	for _, event := range events {
		next, err := applyToken(t.token, event)
		if err != nil {
			return nil, err
		}
		t.token = next
		t.version++
	}
	return t, nil
}

// StripeToken returns the current snapshot of the gateway resource.
func (t *Token) StripeToken() *stripe.Token { return t.token }

// TenderReference returns the gateway id charged when this token is the tender.
func (t *Token) TenderReference() string { return t.token.ID }

// CustomerRef is always empty: a token has no purchasing identity until an
// authorization attaches it to one.
func (t *Token) CustomerRef() string { return "" }

func (t *Token) AggregateID() string { return t.id }
func (t *Token) Version() int        { return t.version }

func (t *Token) recordThat(event Event) {
	next, err := applyToken(t.token, event)
	if err != nil {
		panic(err)
	}
	t.token = next
	t.version++
	t.pending = append(t.pending, event)
}

func (t *Token) releaseEvents() (events []Event, baseVersion int) {
	events = t.pending
	baseVersion = t.version - len(events)
	t.pending = nil
	return events, baseVersion
}

// applyToken is the fold: (snapshot, event) -> snapshot.
func applyToken(_ *stripe.Token, event Event) (*stripe.Token, error) {
	switch e := event.(type) {
	case TokenCreated:
		return e.Token, nil
	default:
		return nil, fmt.Errorf("%w: %T for token", ErrUnknownEvent, event)
	}
}
