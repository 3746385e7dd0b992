package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent indicates a wire event name with no registered shape.
var ErrUnknownEvent = errors.New("unknown event")

type paymentMethodCreatedWire struct {
	BillingAddress BillingAddress  `json:"billing_address"`
	Source         json.RawMessage `json:"source"`
}

type paymentMethodUpdatedWire struct {
	BillingAddress BillingAddress `json:"billing_address"`
}

type paymentIntentAuthorizedWire struct {
	Money              Money               `json:"money"`
	Tender             TenderID            `json:"tender"`
	Description        string              `json:"description,omitempty"`
	MerchantDescriptor string              `json:"merchant_descriptor,omitempty"`
	ThreeDS            *ThreeDSecureResult `json:"three_ds,omitempty"`
}

type paymentIntentCapturedWire struct {
	Amount *int64    `json:"amount,omitempty"`
	Tender *TenderID `json:"tender,omitempty"`
}

type refundCreatedWire struct {
	Money           Money  `json:"money"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type tokenCreatedWire struct {
	Source json.RawMessage `json:"source"`
}

// MarshalEvent serializes a domain event payload for the bus.
func MarshalEvent(event Event) ([]byte, error) {
	switch e := event.(type) {
	case PaymentMethodCreated:
		source, err := marshalSource(e.Source)
		if err != nil {
			return nil, err
		}
		return json.Marshal(paymentMethodCreatedWire{BillingAddress: e.BillingAddress, Source: source})
	case PaymentMethodUpdated:
		return json.Marshal(paymentMethodUpdatedWire{BillingAddress: e.BillingAddress})
	case PaymentIntentAuthorized:
		return json.Marshal(paymentIntentAuthorizedWire{
			Money:              e.Money,
			Tender:             e.Tender,
			Description:        e.Description,
			MerchantDescriptor: e.MerchantDescriptor,
			ThreeDS:            e.ThreeDS,
		})
	case PaymentIntentCaptured:
		return json.Marshal(paymentIntentCapturedWire{Amount: e.Amount, Tender: e.Tender})
	case PaymentIntentCanceled:
		return json.Marshal(struct{}{})
	case RefundCreated:
		return json.Marshal(refundCreatedWire{Money: e.Money, PaymentIntentID: e.PaymentIntentID})
	case TokenCreated:
		source, err := marshalSource(e.Source)
		if err != nil {
			return nil, err
		}
		return json.Marshal(tokenCreatedWire{Source: source})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

// UnmarshalEvent reconstructs a domain event from its wire name and payload.
func UnmarshalEvent(name string, payload []byte) (Event, error) {
	switch name {
	case NamePaymentMethodCreated:
		var w paymentMethodCreatedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		source, err := unmarshalSource(w.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return PaymentMethodCreated{BillingAddress: w.BillingAddress, Source: source}, nil
	case NamePaymentMethodUpdated:
		var w paymentMethodUpdatedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return PaymentMethodUpdated{BillingAddress: w.BillingAddress}, nil
	case NamePaymentIntentAuthorized:
		var w paymentIntentAuthorizedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return PaymentIntentAuthorized{
			Money:              w.Money,
			Tender:             w.Tender,
			Description:        w.Description,
			MerchantDescriptor: w.MerchantDescriptor,
			ThreeDS:            w.ThreeDS,
		}, nil
	case NamePaymentIntentCaptured:
		var w paymentIntentCapturedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return PaymentIntentCaptured{Amount: w.Amount, Tender: w.Tender}, nil
	case NamePaymentIntentCanceled:
		return PaymentIntentCanceled{}, nil
	case NameRefundCreated:
		var w refundCreatedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return RefundCreated{Money: w.Money, PaymentIntentID: w.PaymentIntentID}, nil
	case NameTokenCreated:
		var w tokenCreatedWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		source, err := unmarshalSource(w.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return TokenCreated{Source: source}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}
