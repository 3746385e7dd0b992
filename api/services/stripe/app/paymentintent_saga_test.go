package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v79"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/eventstore"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

type intentFixture struct {
	saga    *PaymentIntentSaga
	intents *mirror.PaymentIntentRepository
	methods *mirror.PaymentMethodRepository
	tokens  *mirror.TokenRepository
	domain  *fakeDomainIntents
}

func newIntentFixture(t *testing.T, gateway gw.StripeGateway, domainIDs ...string) *intentFixture {
	t.Helper()
	store := eventstore.NewMemoryStore()
	intents := mirror.NewPaymentIntentRepository(store)
	methods := mirror.NewPaymentMethodRepository(store)
	tokens := mirror.NewTokenRepository(store)
	domainIntents := newFakeDomainIntents(domainIDs...)
	saga := NewPaymentIntentSaga(intents, mirror.NewTenderRepository(methods, tokens), gateway, domainIntents)
	return &intentFixture{saga: saga, intents: intents, methods: methods, tokens: tokens, domain: domainIntents}
}

func (f *intentFixture) seedMethod(t *testing.T, id, stripeID, customerID string) {
	t.Helper()
	method := &stripe.PaymentMethod{ID: stripeID}
	if customerID != "" {
		method.Customer = &stripe.Customer{ID: customerID}
	}
	require.NoError(t, f.methods.Persist(context.Background(), mirror.AttachPaymentMethod(id, method)))
}

func authorizedEvent(tender domain.TenderID) domain.PaymentIntentAuthorized {
	return domain.PaymentIntentAuthorized{
		Money:              domain.Money{Amount: 100, Currency: "usd"},
		Tender:             tender,
		Description:        "order 42",
		MerchantDescriptor: "ACME",
	}
}

func TestPaymentIntentSaga_AuthorizeThenCancel(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)
	f.seedMethod(t, "method-1", "pm_123", "cus_123")

	var gotReq gw.PaymentIntentRequest
	gateway.createIntent = func(key gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
		assert.Equal(t, gw.Credential(testKey), key)
		gotReq = req
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture}, nil
	}

	msg := testMessage("intent-1", authorizedEvent(domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "method-1"}))
	require.NoError(t, f.saga.Handle(context.Background(), msg))

	assert.Equal(t, int64(100), gotReq.Amount)
	assert.Equal(t, "usd", gotReq.Currency)
	assert.Equal(t, "pm_123", gotReq.PaymentMethod)
	assert.Equal(t, "cus_123", gotReq.Customer)
	assert.Equal(t, "intent-1", gotReq.Metadata[config.AggregateIDMetadata])

	intentMirror, err := f.intents.Retrieve(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, stripe.PaymentIntentStatusRequiresCapture, intentMirror.StripePaymentIntent().Status)

	gateway.cancelIntent = func(_ gw.Credential, id string) (*stripe.PaymentIntent, error) {
		assert.Equal(t, "pi_1", id)
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusCanceled}, nil
	}
	require.NoError(t, f.saga.Handle(context.Background(), testMessage("intent-1", domain.PaymentIntentCanceled{})))

	intentMirror, err = f.intents.Retrieve(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, stripe.PaymentIntentStatusCanceled, intentMirror.StripePaymentIntent().Status)
}

func TestPaymentIntentSaga_PassesThroughAuthenticationEvidence(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)
	f.seedMethod(t, "method-1", "pm_123", "cus_123")

	var gotReq gw.PaymentIntentRequest
	gateway.createIntent = func(_ gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
		gotReq = req
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture}, nil
	}

	event := authorizedEvent(domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "method-1"})
	event.ThreeDS = &domain.ThreeDSecureResult{
		AuthenticationValue: "cryptogram",
		DSTransactionID:     "ds-1",
		Version:             "2.2.0",
		Status:              "Y",
		ECI:                 "05",
	}
	require.NoError(t, f.saga.Handle(context.Background(), testMessage("intent-1", event)))

	require.NotNil(t, gotReq.ThreeDSecure)
	assert.Equal(t, "cryptogram", gotReq.ThreeDSecure.Cryptogram)
	assert.Equal(t, "ds-1", gotReq.ThreeDSecure.TransactionID)
	assert.Equal(t, "05", gotReq.ThreeDSecure.ElectronicCommerceIndicator)
}

func TestPaymentIntentSaga_TokenTenderGetsCustomer(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)
	require.NoError(t, f.tokens.Persist(context.Background(), mirror.CreateToken("token-1", &stripe.Token{ID: "tok_abc"})))

	gateway.customerFromToken = func(_ gw.Credential, tokenID string) (*stripe.Customer, error) {
		assert.Equal(t, "tok_abc", tokenID)
		return &stripe.Customer{ID: "cus_new", DefaultSource: &stripe.PaymentSource{ID: "card_1"}}, nil
	}
	var gotReq gw.PaymentIntentRequest
	gateway.createIntent = func(_ gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
		gotReq = req
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture}, nil
	}

	msg := testMessage("intent-1", authorizedEvent(domain.TenderID{Kind: domain.TenderKindToken, ID: "token-1"}))
	require.NoError(t, f.saga.Handle(context.Background(), msg))

	assert.Equal(t, "cus_new", gotReq.Customer)
	assert.Equal(t, "card_1", gotReq.PaymentMethod)
}

func TestPaymentIntentSaga_DeclinedAuthorizationCompensates(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway, "intent-1")
	f.seedMethod(t, "method-1", "pm_123", "cus_123")

	gateway.createIntent = func(_ gw.Credential, _ gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
		return nil, cardRejection("Your card was declined.")
	}

	msg := testMessage("intent-1", authorizedEvent(domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "method-1"}))
	require.NoError(t, f.saga.Handle(context.Background(), msg))

	assert.True(t, f.domain.intents["intent-1"].declined)
	assert.Equal(t, "Your card was declined.", f.domain.intents["intent-1"].reason)
	assert.Equal(t, 1, f.domain.persisted)

	_, err := f.intents.Retrieve(context.Background(), "intent-1")
	assert.ErrorIs(t, err, domain.ErrCannotReconstitute)
}

func TestPaymentIntentSaga_TransientErrorPropagates(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway, "intent-1")
	f.seedMethod(t, "method-1", "pm_123", "cus_123")

	gateway.createIntent = func(_ gw.Credential, _ gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
		return nil, serverError()
	}

	msg := testMessage("intent-1", authorizedEvent(domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "method-1"}))
	err := f.saga.Handle(context.Background(), msg)
	require.Error(t, err)

	var stripeErr *stripe.Error
	assert.True(t, errors.As(err, &stripeErr))
	assert.False(t, f.domain.intents["intent-1"].declined)
	assert.Zero(t, f.domain.persisted)
}

func TestPaymentIntentSaga_RedeliveredAuthorizationIsNoOp(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)
	f.seedMethod(t, "method-1", "pm_123", "cus_123")

	created, err := mirror.CreatePaymentIntent("intent-1", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture})
	require.NoError(t, err)
	require.NoError(t, f.intents.Persist(context.Background(), created))

	// createIntent stays nil: any gateway call fails the test.
	msg := testMessage("intent-1", authorizedEvent(domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "method-1"}))
	assert.NoError(t, f.saga.Handle(context.Background(), msg))
}

func TestPaymentIntentSaga_CaptureSucceeds(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)

	created, err := mirror.CreatePaymentIntent("intent-1", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture})
	require.NoError(t, err)
	require.NoError(t, f.intents.Persist(context.Background(), created))

	amount := int64(75)
	gateway.captureIntent = func(_ gw.Credential, id string, req gw.CaptureRequest) (*stripe.PaymentIntent, error) {
		assert.Equal(t, "pi_1", id)
		require.NotNil(t, req.AmountToCapture)
		assert.Equal(t, int64(75), *req.AmountToCapture)
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded}, nil
	}

	msg := testMessage("intent-1", domain.PaymentIntentCaptured{Amount: &amount})
	require.NoError(t, f.saga.Handle(context.Background(), msg))

	intentMirror, err := f.intents.Retrieve(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, stripe.PaymentIntentStatusSucceeded, intentMirror.StripePaymentIntent().Status)
}

func TestPaymentIntentSaga_DeclinedCaptureKeepsAuthorization(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway, "intent-1")

	created, err := mirror.CreatePaymentIntent("intent-1", &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture})
	require.NoError(t, err)
	require.NoError(t, f.intents.Persist(context.Background(), created))

	gateway.captureIntent = func(_ gw.Credential, _ string, _ gw.CaptureRequest) (*stripe.PaymentIntent, error) {
		return nil, cardRejection("Insufficient funds.")
	}

	require.NoError(t, f.saga.Handle(context.Background(), testMessage("intent-1", domain.PaymentIntentCaptured{})))

	assert.True(t, f.domain.intents["intent-1"].declined)
	assert.Equal(t, "Insufficient funds.", f.domain.intents["intent-1"].reason)

	intentMirror, err := f.intents.Retrieve(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, stripe.PaymentIntentStatusRequiresCapture, intentMirror.StripePaymentIntent().Status)
}

func TestPaymentIntentSaga_IgnoresGatewayConfirmations(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)

	msg := testMessage("intent-1", mirror.PaymentIntentSucceeded{Intent: &stripe.PaymentIntent{ID: "pi_1"}})
	assert.NoError(t, f.saga.Handle(context.Background(), msg))
}

func TestPaymentIntentSaga_RejectsForeignEvents(t *testing.T) {
	gateway := &fakeGateway{}
	f := newIntentFixture(t, gateway)

	err := f.saga.Handle(context.Background(), testMessage("intent-1", domain.TokenCreated{Source: domain.CashSource{}}))
	assert.ErrorIs(t, err, ErrUnexpectedEvent)
}
