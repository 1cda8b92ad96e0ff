package store_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"datagpt-client/internal/entity"
	"datagpt-client/internal/store"
	"datagpt-client/internal/stubserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full user journey: sign in, create a workspace, upload a PDF, ask a
// question, get a cited answer.
func TestSignInToCitedAnswer(t *testing.T) {
	e := newEnv(t, stubserver.Options{})
	ctx := context.Background()

	require.NoError(t, e.session.SignIn(ctx, seedEmail, seedPassword))
	sess := e.session.Snapshot()
	require.True(t, sess.SubscriptionValid)
	require.NotNil(t, sess.SubscriptionExpiry)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *sess.SubscriptionExpiry, time.Minute)

	require.NoError(t, e.workspaces.Create(ctx, "Reports"))
	snap := e.workspaces.Snapshot()
	require.Len(t, snap.Workspaces, 1)
	wsId := *snap.Workspaces[0].Id
	require.NoError(t, e.workspaces.Select(wsId))

	require.NoError(t, e.workspaces.UploadDocument(ctx, store.FileUpload{
		Name:    "q3.pdf",
		Content: bytes.NewReader([]byte("%PDF-1.4")),
	}))

	_, err := e.conversations.SendMessage(ctx, wsId, "What is the total revenue?")
	require.NoError(t, err)

	msgs := e.conversations.Messages(wsId)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.ChatRoleUser, msgs[0].Role)
	assert.Equal(t, "What is the total revenue?", msgs[0].Content)
	assert.Equal(t, entity.ChatRoleAssistant, msgs[1].Role)
	assert.NotEmpty(t, msgs[1].Content)
	require.NotEmpty(t, msgs[1].Sources)
	for _, src := range msgs[1].Sources {
		assert.Equal(t, "q3.pdf", src.File)
		assert.GreaterOrEqual(t, src.Page, 1)
	}
}
