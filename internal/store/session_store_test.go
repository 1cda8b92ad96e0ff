package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"datagpt-client/internal/gateway"
	"datagpt-client/internal/store"
	"datagpt-client/internal/stubserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInSetsSubscription(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	e.signIn(t)

	sess := e.session.Snapshot()
	assert.True(t, sess.Authenticated())
	assert.Equal(t, seedEmail, sess.User.Email)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.SubscriptionValid)
	require.NotNil(t, sess.SubscriptionExpiry)
	assert.True(t, sess.SubscriptionExpiry.After(time.Now()))
	assert.False(t, sess.Loading)
}

func TestSignInExpiredSubscriptionIsInvalid(t *testing.T) {
	e := newEnv(t, stubserver.Options{Users: []stubserver.SeedUser{{
		Email:    seedEmail,
		Password: seedPassword,
		Name:     "Expired User",
		AppValid: true,
		Expiry:   time.Now().Add(-time.Hour),
	}}})
	e.signIn(t)

	sess := e.session.Snapshot()
	assert.True(t, sess.Authenticated())
	assert.False(t, sess.SubscriptionValid)

	var gate *store.SubscriptionRequired
	err := e.session.Guard()
	require.ErrorAs(t, err, &gate)
	assert.True(t, gate.Expired)
}

func TestSignInBadCredentials(t *testing.T) {
	e := newEnv(t, stubserver.Options{})

	err := e.session.SignIn(context.Background(), seedEmail, "wrong")
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 401, remote.Status)

	sess := e.session.Snapshot()
	assert.False(t, sess.Authenticated())
	assert.False(t, sess.Loading)
}

func TestSignInValidatesLocally(t *testing.T) {
	e := newEnv(t, stubserver.Options{})

	err := e.session.SignIn(context.Background(), "not-an-email", seedPassword)
	var validation *store.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, e.stub.HandledCount("POST", "/api/v1/auth/signin"))
}

func TestSignOutClearsSessionSynchronously(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	e.signIn(t)

	e.session.SignOut()

	sess := e.session.Snapshot()
	assert.False(t, sess.Authenticated())
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Token)
	assert.False(t, sess.SubscriptionValid)
	assert.Nil(t, sess.SubscriptionExpiry)
}

func TestCheckSubscriptionFailsClosed(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	e.signIn(t)
	require.True(t, e.session.Snapshot().SubscriptionValid)

	e.stub.SetFailSubscription(true)
	e.session.CheckSubscription(context.Background())

	sess := e.session.Snapshot()
	assert.False(t, sess.SubscriptionValid)
	assert.Nil(t, sess.SubscriptionExpiry)
}

func TestGatedActionRefusedAfterFailedCheck(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	e.signIn(t)

	e.stub.SetFailSubscription(true)
	e.session.CheckSubscription(context.Background())

	err := e.workspaces.Create(context.Background(), "Reports")
	var gate *store.SubscriptionRequired
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, 0, e.stub.HandledCount("POST", "/api/v1/workspaces"))
}

func TestCheckSubscriptionIsNoOpWithoutToken(t *testing.T) {
	e := newEnv(t, stubserver.Options{})

	e.session.CheckSubscription(context.Background())
	assert.Equal(t, 0, e.stub.HandledCount("GET", "/api/v1/auth/subscription"))
}

func TestCheckSubscriptionReusesFreshResult(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	e.signIn(t)

	e.session.CheckSubscription(context.Background())
	e.session.CheckSubscription(context.Background())
	assert.Equal(t, 1, e.stub.HandledCount("GET", "/api/v1/auth/subscription"))
}

func TestSubscribeNotifiedOnMutation(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	notified := 0
	cancel := e.session.Subscribe(func() { notified++ })
	defer cancel()

	e.signIn(t)
	assert.Greater(t, notified, 0)

	before := notified
	e.session.SignOut()
	assert.Greater(t, notified, before)
}

func TestGuardDistinguishesMissingFromExpired(t *testing.T) {
	e := newEnv(t, stubserver.Options{Users: []stubserver.SeedUser{{
		Email:    seedEmail,
		Password: seedPassword,
		Name:     "No Entitlement",
		AppValid: false,
		Expiry:   time.Now().AddDate(0, 0, 30),
	}}})
	e.signIn(t)

	var gate *store.SubscriptionRequired
	require.True(t, errors.As(e.session.Guard(), &gate))
	assert.False(t, gate.Expired)
}
