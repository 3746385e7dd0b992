package gateway

import stripe "github.com/stripe/stripe-go/v79"

// Credential is the per-call Stripe API key. It travels with each message
// (never as process-global state) so one consumer process can serve many
// tenants.
type Credential string

// Address mirrors the billing address fields Stripe accepts.
type Address struct {
	City       string
	Country    string
	Line1      string
	Line2      string
	PostalCode string
	State      string
}

// BillingDetails is the billing payload for payment methods and customers.
type BillingDetails struct {
	Name    string
	Email   string
	Phone   string
	Address Address
}

// CardDetails is decrypted card data, only ever held in memory between
// decryption and the gateway call.
type CardDetails struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// TokenRef names a previously created Stripe token and its type, so a
// payment method created from it preserves the token's type.
type TokenRef struct {
	Type string
	ID   string
}

// ThreeDSecure is the pass-through authentication evidence block.
type ThreeDSecure struct {
	Cryptogram                  string
	TransactionID               string
	Version                     string
	AresTransStatus             string
	ElectronicCommerceIndicator string
}

// PaymentIntentRequest is a two-phase authorization: capture method is
// always manual and the intent is confirmed synchronously.
type PaymentIntentRequest struct {
	Amount              int64
	Currency            string
	Customer            string
	PaymentMethod       string
	Description         string
	StatementDescriptor string
	ThreeDSecure        *ThreeDSecure
	Metadata            map[string]string
}

// CaptureRequest captures an authorized intent, optionally partially and
// optionally against a different payment method.
type CaptureRequest struct {
	AmountToCapture *int64
	PaymentMethod   string
}

// PaymentMethodRequest creates a payment method from exactly one of Card
// or Token.
type PaymentMethodRequest struct {
	Billing  BillingDetails
	Card     *CardDetails
	Token    *TokenRef
	Metadata map[string]string
}

// RefundRequest refunds an amount against a captured payment intent.
type RefundRequest struct {
	PaymentIntent string
	Amount        *int64
	Metadata      map[string]string
}

// StripeGateway abstracts the Stripe SDK operations the sagas need.
// Every call takes the credential explicitly.
type StripeGateway interface {
	CreatePaymentIntent(key Credential, req PaymentIntentRequest) (*stripe.PaymentIntent, error)
	CapturePaymentIntent(key Credential, id string, req CaptureRequest) (*stripe.PaymentIntent, error)
	CancelPaymentIntent(key Credential, id string) (*stripe.PaymentIntent, error)

	CreatePaymentMethod(key Credential, req PaymentMethodRequest) (*stripe.PaymentMethod, error)
	GetPaymentMethod(key Credential, id string) (*stripe.PaymentMethod, error)
	UpdatePaymentMethod(key Credential, id string, billing BillingDetails) (*stripe.PaymentMethod, error)
	AttachPaymentMethod(key Credential, id, customerID string) (*stripe.PaymentMethod, error)

	CreateCustomer(key Credential, billing BillingDetails) (*stripe.Customer, error)
	CreateCustomerFromToken(key Credential, tokenID string) (*stripe.Customer, error)

	CreateRefund(key Credential, req RefundRequest) (*stripe.Refund, error)
	CreateToken(key Credential, card CardDetails) (*stripe.Token, error)
}
