package app

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

// PaymentIntentSaga authorizes, captures and cancels payment intents at the
// gateway, mirroring the result and declining the domain intent when the
// gateway rejects a request.
type PaymentIntentSaga struct {
	intents       *mirror.PaymentIntentRepository
	tenders       *mirror.TenderRepository
	gateway       gw.StripeGateway
	domainIntents domain.PaymentIntentRepository
}

func NewPaymentIntentSaga(
	intents *mirror.PaymentIntentRepository,
	tenders *mirror.TenderRepository,
	gateway gw.StripeGateway,
	domainIntents domain.PaymentIntentRepository,
) *PaymentIntentSaga {
	return &PaymentIntentSaga{intents: intents, tenders: tenders, gateway: gateway, domainIntents: domainIntents}
}

func (s *PaymentIntentSaga) Handle(ctx context.Context, msg messaging.Message) error {
	switch event := msg.Payload.(type) {
	case domain.PaymentIntentAuthorized:
		return s.handleAuthorized(ctx, event, msg)
	case domain.PaymentIntentCaptured:
		return s.handleCaptured(ctx, event, msg)
	case domain.PaymentIntentCanceled:
		return s.handleCanceled(ctx, msg)
	case mirror.PaymentIntentCreated, mirror.PaymentIntentSucceeded, mirror.PaymentIntentCanceled:
		// Gateway confirmations for intents are informational: the mirror
		// was already advanced by the synchronous API response.
		slog.Debug("ignoring gateway intent confirmation", "event", msg.Payload.EventName(), "aggregate_id", msg.AggregateID)
		return nil
	default:
		return fmt.Errorf("%w: %s in payment intent saga", ErrUnexpectedEvent, msg.Payload.EventName())
	}
}

func (s *PaymentIntentSaga) handleAuthorized(ctx context.Context, event domain.PaymentIntentAuthorized, msg messaging.Message) error {
	key := msg.Credential()

	exists, err := s.intents.Exists(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("payment intent mirror already exists, skipping authorization", "aggregate_id", msg.AggregateID)
		return nil
	}

	tender, err := s.tenders.Retrieve(ctx, event.Tender)
	if err != nil {
		return err
	}
	paymentMethod := tender.TenderReference()
	customer := tender.CustomerRef()

	if event.Tender.Kind == domain.TenderKindToken {
		// A token has no purchasing identity yet: attach it to a fresh
		// customer so downstream references match the payment-method path.
		cust, err := s.gateway.CreateCustomerFromToken(key, tender.TenderReference())
		if err != nil {
			if isRejection(err) {
				return s.decline(ctx, msg.AggregateID, rejectionMessage(err))
			}
			return err
		}
		customer = cust.ID
		if cust.DefaultSource != nil {
			paymentMethod = cust.DefaultSource.ID
		}
	}

	req := gw.PaymentIntentRequest{
		Amount:              event.Money.Amount,
		Currency:            event.Money.Currency,
		Customer:            customer,
		PaymentMethod:       paymentMethod,
		Description:         event.Description,
		StatementDescriptor: event.MerchantDescriptor,
		Metadata:            map[string]string{config.AggregateIDMetadata: msg.AggregateID},
	}
	if event.ThreeDS != nil {
		req.ThreeDSecure = &gw.ThreeDSecure{
			Cryptogram:                  event.ThreeDS.AuthenticationValue,
			TransactionID:               event.ThreeDS.DSTransactionID,
			Version:                     event.ThreeDS.Version,
			AresTransStatus:             event.ThreeDS.Status,
			ElectronicCommerceIndicator: event.ThreeDS.ECI,
		}
	}

	intent, err := s.gateway.CreatePaymentIntent(key, req)
	if err != nil {
		if isRejection(err) {
			return s.decline(ctx, msg.AggregateID, rejectionMessage(err))
		}
		return err
	}

	created, err := mirror.CreatePaymentIntent(msg.AggregateID, intent)
	if err != nil {
		return err
	}
	return s.intents.Persist(ctx, created)
}

func (s *PaymentIntentSaga) handleCaptured(ctx context.Context, event domain.PaymentIntentCaptured, msg messaging.Message) error {
	key := msg.Credential()

	intentMirror, err := s.intents.Retrieve(ctx, msg.AggregateID)
	if err != nil {
		return err
	}

	req := gw.CaptureRequest{AmountToCapture: event.Amount}
	if event.Tender != nil {
		tender, err := s.tenders.Retrieve(ctx, *event.Tender)
		if err != nil {
			return err
		}
		req.PaymentMethod = tender.TenderReference()
	}

	captured, err := s.gateway.CapturePaymentIntent(key, intentMirror.StripePaymentIntent().ID, req)
	if err != nil {
		if isRejection(err) {
			if err := s.decline(ctx, msg.AggregateID, rejectionMessage(err)); err != nil {
				return err
			}
			// A failed capture leaves the authorization in place: persist
			// whatever mirror state resulted instead of rolling back.
			return s.intents.Persist(ctx, intentMirror)
		}
		return err
	}

	if err := intentMirror.Capture(captured); err != nil {
		return err
	}
	return s.intents.Persist(ctx, intentMirror)
}

func (s *PaymentIntentSaga) handleCanceled(ctx context.Context, msg messaging.Message) error {
	key := msg.Credential()

	intentMirror, err := s.intents.Retrieve(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	canceled, err := s.gateway.CancelPaymentIntent(key, intentMirror.StripePaymentIntent().ID)
	if err != nil {
		return err
	}
	if err := intentMirror.Cancel(canceled); err != nil {
		return err
	}
	return s.intents.Persist(ctx, intentMirror)
}

func (s *PaymentIntentSaga) decline(ctx context.Context, id, reason string) error {
	intent, err := s.domainIntents.Retrieve(ctx, id)
	if err != nil {
		return err
	}
	intent.Decline(reason)
	return s.domainIntents.Persist(ctx, intent)
}
