package domain

// Event is the closed union of domain events the sagas consume. Every
// member names itself with a stable wire identifier; the codec refuses
// anything it does not recognize.
type Event interface {
	EventName() string
	isEvent()
}

// Wire identifiers for domain events.
const (
	NamePaymentMethodCreated    = "payment_method.created"
	NamePaymentMethodUpdated    = "payment_method.updated"
	NamePaymentIntentAuthorized = "payment_intent.authorized"
	NamePaymentIntentCaptured   = "payment_intent.captured"
	NamePaymentIntentCanceled   = "payment_intent.canceled"
	NameRefundCreated           = "refund.created"
	NameTokenCreated            = "token.created"
)

// PaymentMethodCreated asks the saga to materialize the payment method at
// the gateway from the given source.
type PaymentMethodCreated struct {
	BillingAddress BillingAddress
	Source         Source
}

// PaymentMethodUpdated pushes new billing details to an existing method.
type PaymentMethodUpdated struct {
	BillingAddress BillingAddress
}

// PaymentIntentAuthorized asks the saga to place a two-phase authorization
// against the named tender.
type PaymentIntentAuthorized struct {
	Money              Money
	Tender             TenderID
	Description        string
	MerchantDescriptor string
	ThreeDS            *ThreeDSecureResult
}

// PaymentIntentCaptured captures a previously authorized intent, optionally
// for a partial amount and optionally against a different tender.
type PaymentIntentCaptured struct {
	Amount *int64
	Tender *TenderID
}

// PaymentIntentCanceled voids an authorization.
type PaymentIntentCanceled struct{}

// RefundCreated refunds an amount against a captured payment intent.
type RefundCreated struct {
	Money           Money
	PaymentIntentID string
}

// TokenCreated tokenizes a card for single use.
type TokenCreated struct {
	Source Source
}

func (PaymentMethodCreated) EventName() string    { return NamePaymentMethodCreated }
func (PaymentMethodUpdated) EventName() string    { return NamePaymentMethodUpdated }
func (PaymentIntentAuthorized) EventName() string { return NamePaymentIntentAuthorized }
func (PaymentIntentCaptured) EventName() string   { return NamePaymentIntentCaptured }
func (PaymentIntentCanceled) EventName() string   { return NamePaymentIntentCanceled }
func (RefundCreated) EventName() string           { return NameRefundCreated }
func (TokenCreated) EventName() string            { return NameTokenCreated }

func (PaymentMethodCreated) isEvent()    {}
func (PaymentMethodUpdated) isEvent()    {}
func (PaymentIntentAuthorized) isEvent() {}
func (PaymentIntentCaptured) isEvent()   {}
func (PaymentIntentCanceled) isEvent()   {}
func (RefundCreated) isEvent()           {}
func (TokenCreated) isEvent()            {}
