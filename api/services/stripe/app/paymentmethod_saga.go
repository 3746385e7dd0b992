package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/secrets"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

// PaymentMethodSaga materializes payment methods at the gateway. Creation
// attaches the method to its own fresh customer; the domain method only
// becomes usable once the gateway confirms attachment out of band.
type PaymentMethodSaga struct {
	methods       *mirror.PaymentMethodRepository
	tokens        *mirror.TokenRepository
	gateway       gw.StripeGateway
	decrypt       secrets.Decrypter
	domainMethods domain.PaymentMethodRepository
}

func NewPaymentMethodSaga(
	methods *mirror.PaymentMethodRepository,
	tokens *mirror.TokenRepository,
	gateway gw.StripeGateway,
	decrypt secrets.Decrypter,
	domainMethods domain.PaymentMethodRepository,
) *PaymentMethodSaga {
	return &PaymentMethodSaga{methods: methods, tokens: tokens, gateway: gateway, decrypt: decrypt, domainMethods: domainMethods}
}

func billingDetails(a domain.BillingAddress) gw.BillingDetails {
	return gw.BillingDetails{
		Name:  a.FullName(),
		Email: a.Email,
		Phone: a.Phone,
		Address: gw.Address{
			City:       a.City,
			Country:    a.Country,
			Line1:      a.AddressLine,
			Line2:      a.AddressLineExtra,
			PostalCode: a.PostalCode,
			State:      a.State,
		},
	}
}

func (s *PaymentMethodSaga) Handle(ctx context.Context, msg messaging.Message) error {
	switch event := msg.Payload.(type) {
	case domain.PaymentMethodCreated:
		return s.handleCreated(ctx, event, msg)
	case domain.PaymentMethodUpdated:
		return s.handleUpdated(ctx, event, msg)
	case mirror.PaymentMethodAttached:
		return s.handleAttachedConfirmation(ctx, msg)
	case mirror.PaymentMethodUpdated:
		// The mirror was already advanced by the synchronous update response.
		slog.Debug("ignoring gateway method update confirmation", "aggregate_id", msg.AggregateID)
		return nil
	default:
		return fmt.Errorf("%w: %s in payment method saga", ErrUnexpectedEvent, msg.Payload.EventName())
	}
}

func (s *PaymentMethodSaga) handleCreated(ctx context.Context, event domain.PaymentMethodCreated, msg messaging.Message) error {
	key := msg.Credential()

	exists, err := s.methods.Exists(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("payment method mirror already exists, skipping creation", "aggregate_id", msg.AggregateID)
		return nil
	}

	billing := billingDetails(event.BillingAddress)

	if token, ok := event.Source.(domain.TokenSource); ok && strings.HasPrefix(token.TokenID, "pm_") {
		return s.attachExistingMethod(ctx, msg, token.TokenID, billing)
	}

	req := gw.PaymentMethodRequest{
		Billing:  billing,
		Metadata: map[string]string{config.AggregateIDMetadata: msg.AggregateID},
	}
	switch source := event.Source.(type) {
	case domain.CardSource:
		number, err := s.decrypt.Decrypt(source.Number)
		if err != nil {
			return err
		}
		card := &gw.CardDetails{Number: number, ExpMonth: source.ExpMonth, ExpYear: source.ExpYear}
		if source.CVC != "" {
			cvc, err := s.decrypt.Decrypt(source.CVC)
			if err != nil {
				return err
			}
			card.CVC = cvc
		}
		req.Card = card
	case domain.TokenSource:
		tokenMirror, err := s.tokens.Retrieve(ctx, source.TokenID)
		if err != nil {
			return err
		}
		tok := tokenMirror.StripeToken()
		req.Token = &gw.TokenRef{Type: string(tok.Type), ID: tok.ID}
	case domain.CashSource:
		return fmt.Errorf("%w: cash", ErrUnsupportedSource)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedSource, event.Source.SourceType())
	}

	method, err := s.gateway.CreatePaymentMethod(key, req)
	if err != nil {
		return s.failOrPropagate(ctx, msg.AggregateID, err)
	}
	method, err = s.attachToNewCustomer(key, method, billing)
	if err != nil {
		return s.failOrPropagate(ctx, msg.AggregateID, err)
	}

	return s.methods.Persist(ctx, mirror.AttachPaymentMethod(msg.AggregateID, method))
}

// attachExistingMethod handles the pm_ passthrough: the "token" already is
// a gateway payment method, possibly already attached to a customer.
func (s *PaymentMethodSaga) attachExistingMethod(ctx context.Context, msg messaging.Message, id string, billing gw.BillingDetails) error {
	key := msg.Credential()

	method, err := s.gateway.GetPaymentMethod(key, id)
	if err != nil {
		return s.failOrPropagate(ctx, msg.AggregateID, err)
	}
	if method.Customer == nil {
		method, err = s.attachToNewCustomer(key, method, billing)
		if err != nil {
			return s.failOrPropagate(ctx, msg.AggregateID, err)
		}
	}
	return s.methods.Persist(ctx, mirror.AttachPaymentMethod(msg.AggregateID, method))
}

// attachToNewCustomer creates a customer from the billing details and
// attaches the method to it. Customer-per-payment-method is the contract;
// no customer de-duplication is attempted.
func (s *PaymentMethodSaga) attachToNewCustomer(key gw.Credential, method *stripe.PaymentMethod, billing gw.BillingDetails) (*stripe.PaymentMethod, error) {
	customer, err := s.gateway.CreateCustomer(key, billing)
	if err != nil {
		return nil, err
	}
	return s.gateway.AttachPaymentMethod(key, method.ID, customer.ID)
}

func (s *PaymentMethodSaga) handleUpdated(ctx context.Context, event domain.PaymentMethodUpdated, msg messaging.Message) error {
	key := msg.Credential()

	methodMirror, err := s.methods.Retrieve(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	updated, err := s.gateway.UpdatePaymentMethod(key, methodMirror.StripePaymentMethod().ID, billingDetails(event.BillingAddress))
	if err != nil {
		return err
	}
	methodMirror.Update(updated)
	return s.methods.Persist(ctx, methodMirror)
}

// handleAttachedConfirmation marks the domain method usable once the
// gateway confirms attachment. Creating the mirror never does this by
// itself: "gateway resource exists" and "domain considers it usable" are
// deliberately decoupled.
func (s *PaymentMethodSaga) handleAttachedConfirmation(ctx context.Context, msg messaging.Message) error {
	method, err := s.domainMethods.Retrieve(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	method.Success()
	return s.domainMethods.Persist(ctx, method)
}

// failOrPropagate compensates the domain method on a business rejection and
// propagates anything else for bus-level retry.
func (s *PaymentMethodSaga) failOrPropagate(ctx context.Context, id string, err error) error {
	if !isRejection(err) {
		return err
	}
	method, retrieveErr := s.domainMethods.Retrieve(ctx, id)
	if retrieveErr != nil {
		return retrieveErr
	}
	method.Fail()
	return s.domainMethods.Persist(ctx, method)
}
