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

// RefundSaga issues refunds against previously captured payment intents.
// The domain refund only succeeds once the gateway confirms the refund
// through the webhook stream.
type RefundSaga struct {
	refunds       *mirror.RefundRepository
	intents       *mirror.PaymentIntentRepository
	gateway       gw.StripeGateway
	domainRefunds domain.RefundRepository
}

func NewRefundSaga(
	refunds *mirror.RefundRepository,
	intents *mirror.PaymentIntentRepository,
	gateway gw.StripeGateway,
	domainRefunds domain.RefundRepository,
) *RefundSaga {
	return &RefundSaga{refunds: refunds, intents: intents, gateway: gateway, domainRefunds: domainRefunds}
}

func (s *RefundSaga) Handle(ctx context.Context, msg messaging.Message) error {
	switch event := msg.Payload.(type) {
	case domain.RefundCreated:
		return s.handleCreated(ctx, event, msg)
	case mirror.RefundCreated:
		return s.handleConfirmation(ctx, msg)
	default:
		return fmt.Errorf("%w: %s in refund saga", ErrUnexpectedEvent, msg.Payload.EventName())
	}
}

func (s *RefundSaga) handleCreated(ctx context.Context, event domain.RefundCreated, msg messaging.Message) error {
	key := msg.Credential()

	exists, err := s.refunds.Exists(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("refund mirror already exists, skipping creation", "aggregate_id", msg.AggregateID)
		return nil
	}

	intentMirror, err := s.intents.Retrieve(ctx, event.PaymentIntentID)
	if err != nil {
		return err
	}

	amount := event.Money.Amount
	refund, err := s.gateway.CreateRefund(key, gw.RefundRequest{
		PaymentIntent: intentMirror.StripePaymentIntent().ID,
		Amount:        &amount,
		Metadata:      map[string]string{config.AggregateIDMetadata: msg.AggregateID},
	})
	if err != nil {
		if isRejection(err) {
			return s.decline(ctx, msg.AggregateID, rejectionMessage(err))
		}
		return err
	}

	return s.refunds.Persist(ctx, mirror.CreateRefund(msg.AggregateID, refund))
}

// handleConfirmation marks the domain refund successful once the gateway
// reports the refund through its webhook stream.
func (s *RefundSaga) handleConfirmation(ctx context.Context, msg messaging.Message) error {
	refund, err := s.domainRefunds.Retrieve(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	refund.Success()
	return s.domainRefunds.Persist(ctx, refund)
}

func (s *RefundSaga) decline(ctx context.Context, id, reason string) error {
	refund, err := s.domainRefunds.Retrieve(ctx, id)
	if err != nil {
		return err
	}
	refund.Decline(reason)
	return s.domainRefunds.Persist(ctx, refund)
}
