package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	bootstrap "github.com/tbeaudouin05/stripe-payment-saga/api/bootstrap"
	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/translate"
)

// Stripe webhook payloads are small; anything larger is not from Stripe.
const maxWebhookBody = 64 * 1024

// Publisher is the slice of the message bus the webhook endpoint needs.
type Publisher interface {
	Publish(ctx context.Context, msg messaging.Message) error
}

// NewRouter returns the central HTTP router for webhook ingestion.
func NewRouter() http.Handler {
	if err := bootstrap.Ensure(); err != nil {
		slog.Error("bootstrap ensure failed", "err", err)
	}
	signingSecret := ""
	if config.AppConfig != nil {
		signingSecret = config.AppConfig.StripeWebhookSecret
	}

	mux := http.NewServeMux()
	mux.Handle("POST /webhooks/stripe", NewWebhookHandler(bootstrap.GetPublisher(), signingSecret))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// WebhookHandler verifies, translates and publishes incoming Stripe events.
type WebhookHandler struct {
	publisher     Publisher
	signingSecret string
}

// NewWebhookHandler builds the handler. An empty signing secret disables
// signature verification; only do that against stripe-cli forwarding.
func NewWebhookHandler(publisher Publisher, signingSecret string) *WebhookHandler {
	return &WebhookHandler{publisher: publisher, signingSecret: signingSecret}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := h.parseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("rejecting webhook delivery", "err", err)
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}

	msg, err := translate.Translate(event)
	switch {
	case errors.Is(err, translate.ErrNoCorrelation):
		// Resources created outside this system trigger webhooks too; they
		// carry no aggregate id and are not ours to process.
		slog.Info("ignoring uncorrelated webhook event", "type", event.Type, "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	case errors.Is(err, translate.ErrUnknownEventType):
		slog.Error("webhook endpoint receives unsubscribed event type", "type", event.Type)
		http.Error(w, "unsupported event type", http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("failed to translate webhook event", "type", event.Type, "err", err)
		http.Error(w, "failed to translate event", http.StatusBadRequest)
		return
	}

	if err := h.publisher.Publish(r.Context(), msg); err != nil {
		// Non-2xx makes Stripe redeliver, which is what we want here.
		slog.Error("failed to publish webhook event", "type", event.Type, "err", err)
		http.Error(w, "failed to publish event", http.StatusInternalServerError)
		return
	}

	slog.Info("webhook event published", "type", event.Type, "aggregate_id", msg.AggregateID)
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) parseEvent(body []byte, signature string) (stripe.Event, error) {
	if h.signingSecret != "" {
		return webhook.ConstructEvent(body, signature, h.signingSecret)
	}
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return stripe.Event{}, err
	}
	return event, nil
}
