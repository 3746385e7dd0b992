package domain

import (
	"encoding/json"
	"fmt"
)

// Source is the closed union of payment method source kinds. Adding a kind
// means adding a case to every switch over it; the default branches treat
// anything unlisted as unsupported rather than guessing.
type Source interface {
	SourceType() string
	isSource()
}

// CardSource is raw card data. Number and CVC are ciphertext and are only
// decrypted through the injected Decrypter immediately before a gateway call.
type CardSource struct {
	Number   string `json:"number"`
	CVC      string `json:"cvc,omitempty"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	Holder   string `json:"holder"`
}

// TokenSource references a previously created single-use token aggregate.
type TokenSource struct {
	TokenID string `json:"token_id"`
}

// CashSource exists in the domain vocabulary but no gateway operation
// supports it; sagas reject it before any external call.
type CashSource struct{}

func (CardSource) SourceType() string  { return "card" }
func (TokenSource) SourceType() string { return "token" }
func (CashSource) SourceType() string  { return "cash" }

func (CardSource) isSource()  {}
func (TokenSource) isSource() {}
func (CashSource) isSource()  {}

// sourceEnvelope is the wire form of a Source.
type sourceEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

func marshalSource(s Source) (json.RawMessage, error) {
	value, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sourceEnvelope{Type: s.SourceType(), Value: value})
}

func unmarshalSource(raw json.RawMessage) (Source, error) {
	var env sourceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode source envelope: %w", err)
	}
	switch env.Type {
	case "card":
		var s CardSource
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to decode card source: %w", err)
		}
		return s, nil
	case "token":
		var s TokenSource
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return nil, fmt.Errorf("failed to decode token source: %w", err)
		}
		return s, nil
	case "cash":
		return CashSource{}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", env.Type)
	}
}
