package bootstrap

import (
	"context"
	"log/slog"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
)

// The logged repositories are the standalone-deployment fallback: the saga
// process does not own the domain aggregates, so compensation outcomes are
// surfaced through the log stream for the owning system to pick up.
// Embedding applications replace them via SetDomainRepositories.

type loggedAggregate struct{ id string }

func (a loggedAggregate) ID() string { return a.id }

func (a loggedAggregate) Decline(reason string) {
	slog.Warn("domain compensation", "aggregate_id", a.id, "action", "decline", "reason", reason)
}

func (a loggedAggregate) Fail() {
	slog.Warn("domain compensation", "aggregate_id", a.id, "action", "fail")
}

func (a loggedAggregate) Success() {
	slog.Info("domain confirmation", "aggregate_id", a.id, "action", "success")
}

type loggedIntents struct{}

func (loggedIntents) Retrieve(_ context.Context, id string) (domain.PaymentIntent, error) {
	return loggedAggregate{id: id}, nil
}
func (loggedIntents) Persist(context.Context, domain.PaymentIntent) error { return nil }

type loggedMethods struct{}

func (loggedMethods) Retrieve(_ context.Context, id string) (domain.PaymentMethod, error) {
	return loggedAggregate{id: id}, nil
}
func (loggedMethods) Persist(context.Context, domain.PaymentMethod) error { return nil }

type loggedRefunds struct{}

func (loggedRefunds) Retrieve(_ context.Context, id string) (domain.Refund, error) {
	return loggedAggregate{id: id}, nil
}
func (loggedRefunds) Persist(context.Context, domain.Refund) error { return nil }

type loggedTokens struct{}

func (loggedTokens) Retrieve(_ context.Context, id string) (domain.Token, error) {
	return loggedAggregate{id: id}, nil
}
func (loggedTokens) Persist(context.Context, domain.Token) error { return nil }
