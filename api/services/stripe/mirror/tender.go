package mirror

import (
	"context"
	"fmt"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
)

// Tender is the capability shared by payment method and token mirrors:
// expose the gateway reference that can be charged. Downstream code never
// needs to know which concrete instrument it holds.
type Tender interface {
	TenderReference() string
	CustomerRef() string
}

// TenderRepository resolves a domain tender id to whichever mirror
// implements it.
type TenderRepository struct {
	methods *PaymentMethodRepository
	tokens  *TokenRepository
}

func NewTenderRepository(methods *PaymentMethodRepository, tokens *TokenRepository) *TenderRepository {
	return &TenderRepository{methods: methods, tokens: tokens}
}

func (r *TenderRepository) Retrieve(ctx context.Context, tender domain.TenderID) (Tender, error) {
	switch tender.Kind {
	case domain.TenderKindPaymentMethod:
		return r.methods.Retrieve(ctx, tender.ID)
	case domain.TenderKindToken:
		return r.tokens.Retrieve(ctx, tender.ID)
	default:
		return nil, fmt.Errorf("unsupported tender kind %q", tender.Kind)
	}
}
