package domain

import "fmt"

// Money is a minor-unit amount plus ISO currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// BillingAddress carries the billing details submitted with a payment method.
type BillingAddress struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	City             string `json:"city"`
	Country          string `json:"country"`
	AddressLine      string `json:"address_line"`
	AddressLineExtra string `json:"address_line_extra,omitempty"`
	PostalCode       string `json:"postal_code"`
	State            string `json:"state,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email"`
}

// FullName is the cardholder name as submitted to the gateway.
func (b BillingAddress) FullName() string {
	return fmt.Sprintf("%s %s", b.FirstName, b.LastName)
}

// ThreeDSecureResult is the authentication evidence carried opaquely from
// the domain event into the gateway call. The saga never interprets it.
type ThreeDSecureResult struct {
	AuthenticationValue string `json:"authentication_value"`
	DSTransactionID     string `json:"ds_transaction_id"`
	Version             string `json:"version"`
	Status              string `json:"status"`
	ECI                 string `json:"eci"`
}

// TenderKind discriminates the two chargeable instruments.
type TenderKind string

const (
	TenderKindPaymentMethod TenderKind = "payment_method"
	TenderKindToken         TenderKind = "token"
)

// TenderID names the tender an authorization or capture charges: the
// aggregate id of either a payment method or a single-use token.
type TenderID struct {
	Kind TenderKind `json:"kind"`
	ID   string     `json:"id"`
}
