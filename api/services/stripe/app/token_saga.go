package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/secrets"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

// TokenSaga tokenizes raw card data at the gateway. Only card sources can
// be tokenized; anything else is rejected before the gateway is contacted.
type TokenSaga struct {
	tokens       *mirror.TokenRepository
	gateway      gw.StripeGateway
	decrypt      secrets.Decrypter
	domainTokens domain.TokenRepository
}

func NewTokenSaga(
	tokens *mirror.TokenRepository,
	gateway gw.StripeGateway,
	decrypt secrets.Decrypter,
	domainTokens domain.TokenRepository,
) *TokenSaga {
	return &TokenSaga{tokens: tokens, gateway: gateway, decrypt: decrypt, domainTokens: domainTokens}
}

func (s *TokenSaga) Handle(ctx context.Context, msg messaging.Message) error {
	switch event := msg.Payload.(type) {
	case domain.TokenCreated:
		return s.handleCreated(ctx, event, msg)
	case mirror.TokenCreated:
		// The mirror was already advanced by the synchronous API response.
		slog.Debug("ignoring gateway token confirmation", "aggregate_id", msg.AggregateID)
		return nil
	default:
		return fmt.Errorf("%w: %s in token saga", ErrUnexpectedEvent, msg.Payload.EventName())
	}
}

func (s *TokenSaga) handleCreated(ctx context.Context, event domain.TokenCreated, msg messaging.Message) error {
	key := msg.Credential()

	card, ok := event.Source.(domain.CardSource)
	if !ok {
		return fmt.Errorf("%w: cannot tokenize %s", ErrUnsupportedSource, event.Source.SourceType())
	}

	exists, err := s.tokens.Exists(ctx, msg.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("token mirror already exists, skipping creation", "aggregate_id", msg.AggregateID)
		return nil
	}

	number, err := s.decrypt.Decrypt(card.Number)
	if err != nil {
		return err
	}
	details := gw.CardDetails{Number: number, ExpMonth: card.ExpMonth, ExpYear: card.ExpYear}
	if card.CVC != "" {
		cvc, err := s.decrypt.Decrypt(card.CVC)
		if err != nil {
			return err
		}
		details.CVC = cvc
	}

	token, err := s.gateway.CreateToken(key, details)
	if err != nil {
		if isRejection(err) {
			return s.decline(ctx, msg.AggregateID, rejectionMessage(err))
		}
		return err
	}

	return s.tokens.Persist(ctx, mirror.CreateToken(msg.AggregateID, token))
}

func (s *TokenSaga) decline(ctx context.Context, id, reason string) error {
	token, err := s.domainTokens.Retrieve(ctx, id)
	if err != nil {
		return err
	}
	token.Decline(reason)
	return s.domainTokens.Persist(ctx, token)
}
