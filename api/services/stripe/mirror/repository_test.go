package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v79"

	"github.com/tbeaudouin05/stripe-payment-saga/api/domain"
	"github.com/tbeaudouin05/stripe-payment-saga/api/eventstore"
)

func TestPaymentIntentRepository_PersistAndRetrieve(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentIntentRepository(eventstore.NewMemoryStore())

	created, err := CreatePaymentIntent("agg-1", intentWithStatus("pi_1", stripe.PaymentIntentStatusRequiresCapture))
	require.NoError(t, err)
	require.NoError(t, repo.Persist(ctx, created))

	loaded, err := repo.Retrieve(ctx, "agg-1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Version())
	assert.Equal(t, "pi_1", loaded.StripePaymentIntent().ID)

	require.NoError(t, loaded.Capture(intentWithStatus("pi_1", stripe.PaymentIntentStatusSucceeded)))
	require.NoError(t, repo.Persist(ctx, loaded))

	reloaded, err := repo.Retrieve(ctx, "agg-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Version())
	assert.Equal(t, stripe.PaymentIntentStatusSucceeded, reloaded.StripePaymentIntent().Status)
}

func TestPaymentIntentRepository_RetrieveMissingCannotReconstitute(t *testing.T) {
	repo := NewPaymentIntentRepository(eventstore.NewMemoryStore())
	_, err := repo.Retrieve(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCannotReconstitute)
}

func TestPaymentIntentRepository_StalePersistConflicts(t *testing.T) {
	ctx := context.Background()
	store := eventstore.NewMemoryStore()
	repo := NewPaymentIntentRepository(store)

	created, err := CreatePaymentIntent("agg-1", intentWithStatus("pi_1", stripe.PaymentIntentStatusRequiresCapture))
	require.NoError(t, err)
	require.NoError(t, repo.Persist(ctx, created))

	// Two replicas load the same version and race to persist.
	first, err := repo.Retrieve(ctx, "agg-1")
	require.NoError(t, err)
	second, err := repo.Retrieve(ctx, "agg-1")
	require.NoError(t, err)

	require.NoError(t, first.Capture(intentWithStatus("pi_1", stripe.PaymentIntentStatusSucceeded)))
	require.NoError(t, repo.Persist(ctx, first))

	require.NoError(t, second.Cancel(intentWithStatus("pi_1", stripe.PaymentIntentStatusCanceled)))
	err = repo.Persist(ctx, second)
	assert.ErrorIs(t, err, eventstore.ErrVersionConflict)
}

func TestTenderRepository_ResolvesBothKinds(t *testing.T) {
	ctx := context.Background()
	store := eventstore.NewMemoryStore()
	methods := NewPaymentMethodRepository(store)
	tokens := NewTokenRepository(store)
	tenders := NewTenderRepository(methods, tokens)

	method := AttachPaymentMethod("pm-agg", &stripe.PaymentMethod{ID: "pm_1", Customer: &stripe.Customer{ID: "cus_1"}})
	require.NoError(t, methods.Persist(ctx, method))
	token := CreateToken("tok-agg", &stripe.Token{ID: "tok_1", Type: stripe.TokenTypeCard})
	require.NoError(t, tokens.Persist(ctx, token))

	got, err := tenders.Retrieve(ctx, domain.TenderID{Kind: domain.TenderKindPaymentMethod, ID: "pm-agg"})
	require.NoError(t, err)
	assert.Equal(t, "pm_1", got.TenderReference())
	assert.Equal(t, "cus_1", got.CustomerRef())

	got, err = tenders.Retrieve(ctx, domain.TenderID{Kind: domain.TenderKindToken, ID: "tok-agg"})
	require.NoError(t, err)
	assert.Equal(t, "tok_1", got.TenderReference())
	assert.Empty(t, got.CustomerRef())

	_, err = tenders.Retrieve(ctx, domain.TenderID{Kind: "cash", ID: "x"})
	assert.Error(t, err)
}
