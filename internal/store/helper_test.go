package store_test

import (
	"context"
	"testing"
	"time"

	"datagpt-client/internal/config"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"
	"datagpt-client/internal/store"
	"datagpt-client/internal/stubserver"

	"github.com/stretchr/testify/require"
)

const (
	seedEmail    = "test@example.com"
	seedPassword = "password"
)

type env struct {
	stub          *stubserver.Server
	gw            *gateway.Client
	session       *store.SessionStore
	workspaces    *store.WorkspaceStore
	conversations *store.ConversationStore
}

// newEnv stands the stub backend up on an ephemeral port and wires real
// stores against it. Default seed user has a subscription 30 days out.
func newEnv(t *testing.T, opts stubserver.Options) *env {
	t.Helper()
	if len(opts.Users) == 0 {
		opts.Users = []stubserver.SeedUser{{
			Email:    seedEmail,
			Password: seedPassword,
			Name:     "Test User",
			AppValid: true,
			Expiry:   time.Now().AddDate(0, 0, 30),
		}}
	}
	stub := stubserver.New(opts)
	base, err := stub.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = stub.Shutdown() })

	log := logger.NewNopLogger()
	gw := gateway.NewClient(
		config.BackendConfig{BaseURL: base + "/api/v1", RequestTimeout: 5 * time.Second},
		config.LLMConfig{BaseURL: base + "/llm", RequestTimeout: 5 * time.Second},
		log,
	)
	session := store.NewSessionStore(gw, log)
	conversations := store.NewConversationStore(gw, session, log)
	workspaces := store.NewWorkspaceStore(gw, session, conversations, log)
	t.Cleanup(func() {
		session.Close()
		workspaces.Close()
		conversations.Close()
	})

	return &env{
		stub:          stub,
		gw:            gw,
		session:       session,
		workspaces:    workspaces,
		conversations: conversations,
	}
}

func (e *env) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.session.SignIn(context.Background(), seedEmail, seedPassword))
}

// createWorkspace creates and selects a workspace, returning its id.
func (e *env) createWorkspace(t *testing.T, name string) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.workspaces.Create(ctx, name))
	for _, ws := range e.workspaces.Snapshot().Workspaces {
		if ws.Name == name {
			require.NotNil(t, ws.Id)
			require.NoError(t, e.workspaces.Select(*ws.Id))
			return *ws.Id
		}
	}
	t.Fatalf("workspace %q not found after create", name)
	return 0
}
