package bootstrap

import (
	"fmt"
	"sync"

	"github.com/tbeaudouin05/stripe-payment-saga/api/config"
	"github.com/tbeaudouin05/stripe-payment-saga/api/database"
	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/eventstore"
	"github.com/tbeaudouin05/stripe-payment-saga/api/messaging"
	"github.com/tbeaudouin05/stripe-payment-saga/api/secrets"
	stripeapp "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/app"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway/stripeapi"
	"github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/mirror"
)

var (
	initOnce sync.Once
	initErr  error

	dispatcher *stripeapp.Dispatcher
	publisher  *messaging.Publisher

	gateway   gw.StripeGateway
	decrypter secrets.Decrypter

	domainIntents domain.PaymentIntentRepository
	domainMethods domain.PaymentMethodRepository
	domainRefunds domain.RefundRepository
	domainTokens  domain.TokenRepository
)

// Init initializes config, database, and third-party clients, and wires the
// sagas behind the dispatcher.
func Init() error {
	// Tests may have injected a dispatcher already; do not init heavy deps.
	if dispatcher != nil {
		return nil
	}
	var err error
	if config.AppConfig == nil {
		config.AppConfig, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := database.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to ensure event store schema: %w", err)
	}
	store := eventstore.NewPostgresStore(database.GetDB())

	if gateway == nil {
		gateway = stripeapi.New()
	}
	if decrypter == nil {
		decrypter, err = secrets.NewAESDecrypter(config.AppConfig.CardDecryptionKey)
		if err != nil {
			return fmt.Errorf("failed to initialize card decrypter: %w", err)
		}
	}
	if domainIntents == nil {
		domainIntents = loggedIntents{}
	}
	if domainMethods == nil {
		domainMethods = loggedMethods{}
	}
	if domainRefunds == nil {
		domainRefunds = loggedRefunds{}
	}
	if domainTokens == nil {
		domainTokens = loggedTokens{}
	}

	intents := mirror.NewPaymentIntentRepository(store)
	methods := mirror.NewPaymentMethodRepository(store)
	refunds := mirror.NewRefundRepository(store)
	tokens := mirror.NewTokenRepository(store)
	tenders := mirror.NewTenderRepository(methods, tokens)

	dispatcher = stripeapp.NewDispatcher(
		stripeapp.NewPaymentIntentSaga(intents, tenders, gateway, domainIntents),
		stripeapp.NewPaymentMethodSaga(methods, tokens, gateway, decrypter, domainMethods),
		stripeapp.NewRefundSaga(refunds, intents, gateway, domainRefunds),
		stripeapp.NewTokenSaga(tokens, gateway, decrypter, domainTokens),
	)
	publisher = messaging.NewPublisher(config.AppConfig.Brokers(), config.AppConfig.PaymentEventsTopic, stripeapp.EncodePayload)
	return nil
}

// Ensure runs Init() once per process and returns any initialization error.
func Ensure() error {
	initOnce.Do(func() {
		initErr = Init()
	})
	return initErr
}

func GetDispatcher() *stripeapp.Dispatcher { return dispatcher }
func GetPublisher() *messaging.Publisher   { return publisher }

// SetDispatcher allows tests to inject a pre-wired dispatcher.
func SetDispatcher(d *stripeapp.Dispatcher) { dispatcher = d }

// SetGateway allows tests to inject a stub gateway before Init.
func SetGateway(g gw.StripeGateway) { gateway = g }

// SetDecrypter allows tests to inject a stub decrypter before Init.
func SetDecrypter(d secrets.Decrypter) { decrypter = d }

// SetDomainRepositories lets the embedding application wire its own domain
// aggregates before Init. Without this, compensations are only logged.
func SetDomainRepositories(
	intents domain.PaymentIntentRepository,
	methods domain.PaymentMethodRepository,
	refunds domain.RefundRepository,
	tokens domain.TokenRepository,
) {
	domainIntents = intents
	domainMethods = methods
	domainRefunds = refunds
	domainTokens = tokens
}
