package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
)

const testKey = "sk_test_fake"

var errUnexpectedCall = errors.New("unexpected gateway call")

// fakeGateway delegates to whichever function fields a test sets. An unset
// operation fails the call so tests notice unexpected gateway traffic.
type fakeGateway struct {
	createIntent      func(key gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error)
	captureIntent     func(key gw.Credential, id string, req gw.CaptureRequest) (*stripe.PaymentIntent, error)
	cancelIntent      func(key gw.Credential, id string) (*stripe.PaymentIntent, error)
	createMethod      func(key gw.Credential, req gw.PaymentMethodRequest) (*stripe.PaymentMethod, error)
	getMethod         func(key gw.Credential, id string) (*stripe.PaymentMethod, error)
	updateMethod      func(key gw.Credential, id string, billing gw.BillingDetails) (*stripe.PaymentMethod, error)
	attachMethod      func(key gw.Credential, id, customerID string) (*stripe.PaymentMethod, error)
	createCustomer    func(key gw.Credential, billing gw.BillingDetails) (*stripe.Customer, error)
	customerFromToken func(key gw.Credential, tokenID string) (*stripe.Customer, error)
	createRefund      func(key gw.Credential, req gw.RefundRequest) (*stripe.Refund, error)
	createToken       func(key gw.Credential, card gw.CardDetails) (*stripe.Token, error)
}

func (f *fakeGateway) CreatePaymentIntent(key gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
	if f.createIntent == nil {
		return nil, fmt.Errorf("%w: CreatePaymentIntent", errUnexpectedCall)
	}
	return f.createIntent(key, req)
}

func (f *fakeGateway) CapturePaymentIntent(key gw.Credential, id string, req gw.CaptureRequest) (*stripe.PaymentIntent, error) {
	if f.captureIntent == nil {
		return nil, fmt.Errorf("%w: CapturePaymentIntent", errUnexpectedCall)
	}
	return f.captureIntent(key, id, req)
}

func (f *fakeGateway) CancelPaymentIntent(key gw.Credential, id string) (*stripe.PaymentIntent, error) {
	if f.cancelIntent == nil {
		return nil, fmt.Errorf("%w: CancelPaymentIntent", errUnexpectedCall)
	}
	return f.cancelIntent(key, id)
}

func (f *fakeGateway) CreatePaymentMethod(key gw.Credential, req gw.PaymentMethodRequest) (*stripe.PaymentMethod, error) {
	if f.createMethod == nil {
		return nil, fmt.Errorf("%w: CreatePaymentMethod", errUnexpectedCall)
	}
	return f.createMethod(key, req)
}

func (f *fakeGateway) GetPaymentMethod(key gw.Credential, id string) (*stripe.PaymentMethod, error) {
	if f.getMethod == nil {
		return nil, fmt.Errorf("%w: GetPaymentMethod", errUnexpectedCall)
	}
	return f.getMethod(key, id)
}

func (f *fakeGateway) UpdatePaymentMethod(key gw.Credential, id string, billing gw.BillingDetails) (*stripe.PaymentMethod, error) {
	if f.updateMethod == nil {
		return nil, fmt.Errorf("%w: UpdatePaymentMethod", errUnexpectedCall)
	}
	return f.updateMethod(key, id, billing)
}

func (f *fakeGateway) AttachPaymentMethod(key gw.Credential, id, customerID string) (*stripe.PaymentMethod, error) {
	if f.attachMethod == nil {
		return nil, fmt.Errorf("%w: AttachPaymentMethod", errUnexpectedCall)
	}
	return f.attachMethod(key, id, customerID)
}

func (f *fakeGateway) CreateCustomer(key gw.Credential, billing gw.BillingDetails) (*stripe.Customer, error) {
	if f.createCustomer == nil {
		return nil, fmt.Errorf("%w: CreateCustomer", errUnexpectedCall)
	}
	return f.createCustomer(key, billing)
}

func (f *fakeGateway) CreateCustomerFromToken(key gw.Credential, tokenID string) (*stripe.Customer, error) {
	if f.customerFromToken == nil {
		return nil, fmt.Errorf("%w: CreateCustomerFromToken", errUnexpectedCall)
	}
	return f.customerFromToken(key, tokenID)
}

func (f *fakeGateway) CreateRefund(key gw.Credential, req gw.RefundRequest) (*stripe.Refund, error) {
	if f.createRefund == nil {
		return nil, fmt.Errorf("%w: CreateRefund", errUnexpectedCall)
	}
	return f.createRefund(key, req)
}

func (f *fakeGateway) CreateToken(key gw.Credential, card gw.CardDetails) (*stripe.Token, error) {
	if f.createToken == nil {
		return nil, fmt.Errorf("%w: CreateToken", errUnexpectedCall)
	}
	return f.createToken(key, card)
}

// fakeDecrypter recovers plaintext from the "enc:" convention tests use.
type fakeDecrypter struct{}

func (fakeDecrypter) Decrypt(ciphertext string) (string, error) {
	plain, ok := strings.CutPrefix(ciphertext, "enc:")
	if !ok {
		return "", errors.New("not a test ciphertext")
	}
	return plain, nil
}

type fakeDomainIntent struct {
	id       string
	declined bool
	reason   string
}

func (f *fakeDomainIntent) ID() string            { return f.id }
func (f *fakeDomainIntent) Decline(reason string) { f.declined = true; f.reason = reason }

type fakeDomainIntents struct {
	intents   map[string]*fakeDomainIntent
	persisted int
}

func newFakeDomainIntents(ids ...string) *fakeDomainIntents {
	r := &fakeDomainIntents{intents: map[string]*fakeDomainIntent{}}
	for _, id := range ids {
		r.intents[id] = &fakeDomainIntent{id: id}
	}
	return r
}

func (r *fakeDomainIntents) Retrieve(_ context.Context, id string) (domain.PaymentIntent, error) {
	intent, ok := r.intents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCannotReconstitute, id)
	}
	return intent, nil
}

func (r *fakeDomainIntents) Persist(_ context.Context, _ domain.PaymentIntent) error {
	r.persisted++
	return nil
}

type fakeDomainMethod struct {
	id        string
	failed    bool
	succeeded bool
}

func (f *fakeDomainMethod) ID() string { return f.id }
func (f *fakeDomainMethod) Fail()      { f.failed = true }
func (f *fakeDomainMethod) Success()   { f.succeeded = true }

type fakeDomainMethods struct {
	methods   map[string]*fakeDomainMethod
	persisted int
}

func newFakeDomainMethods(ids ...string) *fakeDomainMethods {
	r := &fakeDomainMethods{methods: map[string]*fakeDomainMethod{}}
	for _, id := range ids {
		r.methods[id] = &fakeDomainMethod{id: id}
	}
	return r
}

func (r *fakeDomainMethods) Retrieve(_ context.Context, id string) (domain.PaymentMethod, error) {
	method, ok := r.methods[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCannotReconstitute, id)
	}
	return method, nil
}

func (r *fakeDomainMethods) Persist(_ context.Context, _ domain.PaymentMethod) error {
	r.persisted++
	return nil
}

type fakeDomainRefund struct {
	id        string
	declined  bool
	succeeded bool
	reason    string
}

func (f *fakeDomainRefund) ID() string            { return f.id }
func (f *fakeDomainRefund) Decline(reason string) { f.declined = true; f.reason = reason }
func (f *fakeDomainRefund) Success()              { f.succeeded = true }

type fakeDomainRefunds struct {
	refunds   map[string]*fakeDomainRefund
	persisted int
}

func newFakeDomainRefunds(ids ...string) *fakeDomainRefunds {
	r := &fakeDomainRefunds{refunds: map[string]*fakeDomainRefund{}}
	for _, id := range ids {
		r.refunds[id] = &fakeDomainRefund{id: id}
	}
	return r
}

func (r *fakeDomainRefunds) Retrieve(_ context.Context, id string) (domain.Refund, error) {
	refund, ok := r.refunds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCannotReconstitute, id)
	}
	return refund, nil
}

func (r *fakeDomainRefunds) Persist(_ context.Context, _ domain.Refund) error {
	r.persisted++
	return nil
}

type fakeDomainToken struct {
	id       string
	declined bool
	reason   string
}

func (f *fakeDomainToken) ID() string            { return f.id }
func (f *fakeDomainToken) Decline(reason string) { f.declined = true; f.reason = reason }

type fakeDomainTokens struct {
	tokens    map[string]*fakeDomainToken
	persisted int
}

func newFakeDomainTokens(ids ...string) *fakeDomainTokens {
	r := &fakeDomainTokens{tokens: map[string]*fakeDomainToken{}}
	for _, id := range ids {
		r.tokens[id] = &fakeDomainToken{id: id}
	}
	return r
}

func (r *fakeDomainTokens) Retrieve(_ context.Context, id string) (domain.Token, error) {
	token, ok := r.tokens[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCannotReconstitute, id)
	}
	return token, nil
}

func (r *fakeDomainTokens) Persist(_ context.Context, _ domain.Token) error {
	r.persisted++
	return nil
}

func testMessage(aggregateID string, payload messaging.Payload) messaging.Message {
	return messaging.NewMessage(aggregateID, payload).WithHeader(config.StripeKeyHeader, testKey)
}

func cardRejection(msg string) error {
	return &stripe.Error{Type: stripe.ErrorTypeCard, HTTPStatusCode: 402, Msg: msg}
}

func serverError() error {
	return &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: 500, Msg: "internal"}
}
