// Package stripeapi implements the gateway on the official Stripe SDK.
// A fresh client.API is initialized per credential, so no API key ever
// lands in package-global SDK state.
package stripeapi

import (
	"fmt"
	"strconv"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
)

// Client is the Stripe SDK-backed implementation of the gateway.
type Client struct{}

// New returns a StripeGateway backed by the official Stripe SDK.
func New() gw.StripeGateway { return Client{} }

func api(key gw.Credential) *client.API {
	c := &client.API{}
	c.Init(string(key), nil)
	return c
}

func addressParams(a gw.Address) *stripe.AddressParams {
	return &stripe.AddressParams{
		City:       stripe.String(a.City),
		Country:    stripe.String(a.Country),
		Line1:      stripe.String(a.Line1),
		Line2:      stripe.String(a.Line2),
		PostalCode: stripe.String(a.PostalCode),
		State:      stripe.String(a.State),
	}
}

func (Client) CreatePaymentIntent(key gw.Credential, req gw.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String(req.PaymentMethod),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			AllowRedirects: stripe.String("never"),
			Enabled:        stripe.Bool(true),
		},
	}
	if req.Customer != "" {
		params.Customer = stripe.String(req.Customer)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(req.StatementDescriptor)
	}
	if req.ThreeDSecure != nil {
		params.PaymentMethodOptions = &stripe.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripe.PaymentIntentPaymentMethodOptionsCardParams{
				ThreeDSecure: &stripe.PaymentIntentPaymentMethodOptionsCardThreeDSecureParams{
					Cryptogram:                  stripe.String(req.ThreeDSecure.Cryptogram),
					TransactionID:               stripe.String(req.ThreeDSecure.TransactionID),
					Version:                     stripe.String(req.ThreeDSecure.Version),
					AresTransStatus:             stripe.String(req.ThreeDSecure.AresTransStatus),
					ElectronicCommerceIndicator: stripe.String(req.ThreeDSecure.ElectronicCommerceIndicator),
				},
			},
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return api(key).PaymentIntents.New(params)
}

func (Client) CapturePaymentIntent(key gw.Credential, id string, req gw.CaptureRequest) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	if req.AmountToCapture != nil {
		params.AmountToCapture = stripe.Int64(*req.AmountToCapture)
	}
	if req.PaymentMethod != "" {
		params.AddExtra("payment_method", req.PaymentMethod)
	}
	return api(key).PaymentIntents.Capture(id, params)
}

func (Client) CancelPaymentIntent(key gw.Credential, id string) (*stripe.PaymentIntent, error) {
	return api(key).PaymentIntents.Cancel(id, &stripe.PaymentIntentCancelParams{})
}

func (Client) CreatePaymentMethod(key gw.Credential, req gw.PaymentMethodRequest) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Address: addressParams(req.Billing.Address),
			Email:   stripe.String(req.Billing.Email),
			Name:    stripe.String(req.Billing.Name),
			Phone:   stripe.String(req.Billing.Phone),
		},
	}
	switch {
	case req.Card != nil:
		params.Type = stripe.String(string(stripe.PaymentMethodTypeCard))
		card := &stripe.PaymentMethodCardParams{
			Number:   stripe.String(req.Card.Number),
			ExpMonth: stripe.Int64(int64(req.Card.ExpMonth)),
			ExpYear:  stripe.Int64(int64(req.Card.ExpYear)),
		}
		if req.Card.CVC != "" {
			card.CVC = stripe.String(req.Card.CVC)
		}
		params.Card = card
	case req.Token != nil:
		// Preserve the token's own type: {type: t, <t>: {token: id}}.
		params.Type = stripe.String(req.Token.Type)
		if req.Token.Type == string(stripe.PaymentMethodTypeCard) {
			params.Card = &stripe.PaymentMethodCardParams{Token: stripe.String(req.Token.ID)}
		} else {
			params.AddExtra(fmt.Sprintf("%s[token]", req.Token.Type), req.Token.ID)
		}
	default:
		return nil, fmt.Errorf("payment method request needs a card or a token")
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return api(key).PaymentMethods.New(params)
}

func (Client) GetPaymentMethod(key gw.Credential, id string) (*stripe.PaymentMethod, error) {
	return api(key).PaymentMethods.Get(id, &stripe.PaymentMethodParams{})
}

func (Client) UpdatePaymentMethod(key gw.Credential, id string, billing gw.BillingDetails) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Address: addressParams(billing.Address),
			Email:   stripe.String(billing.Email),
			Name:    stripe.String(billing.Name),
			Phone:   stripe.String(billing.Phone),
		},
	}
	return api(key).PaymentMethods.Update(id, params)
}

func (Client) AttachPaymentMethod(key gw.Credential, id, customerID string) (*stripe.PaymentMethod, error) {
	return api(key).PaymentMethods.Attach(id, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
}

func (Client) CreateCustomer(key gw.Credential, billing gw.BillingDetails) (*stripe.Customer, error) {
	return api(key).Customers.New(&stripe.CustomerParams{
		Address: addressParams(billing.Address),
		Email:   stripe.String(billing.Email),
		Name:    stripe.String(billing.Name),
		Phone:   stripe.String(billing.Phone),
	})
}

func (Client) CreateCustomerFromToken(key gw.Credential, tokenID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{Source: stripe.String(tokenID)}
	return api(key).Customers.New(params)
}

func (Client) CreateRefund(key gw.Credential, req gw.RefundRequest) (*stripe.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntent),
	}
	if req.Amount != nil {
		params.Amount = stripe.Int64(*req.Amount)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	return api(key).Refunds.New(params)
}

func (Client) CreateToken(key gw.Credential, card gw.CardDetails) (*stripe.Token, error) {
	return api(key).Tokens.New(&stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.String(strconv.Itoa(card.ExpMonth)),
			ExpYear:  stripe.String(strconv.Itoa(card.ExpYear)),
			CVC:      stripe.String(card.CVC),
		},
	})
}
