package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"datagpt-client/internal/config"
	"datagpt-client/internal/dto"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.Handler) (*gateway.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := gateway.NewClient(
		config.BackendConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second},
		config.LLMConfig{BaseURL: srv.URL, RequestTimeout: 2 * time.Second},
		logger.NewNopLogger(),
	)
	return c, srv
}

func TestEnvelopeSuccessFalseIsRemoteError(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "message": "workspace quota reached", "data": null}`))
	}))

	_, err := c.ListWorkspaces(context.Background(), "tok", 1)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusOK, remote.Status)
	assert.Equal(t, "workspace quota reached", remote.Message)
}

func TestNon2xxIsRemoteError(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "message": "boom"}`))
	}))

	_, err := c.ListWorkspaces(context.Background(), "tok", 1)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.Status)
	assert.Equal(t, "boom", remote.Message)
}

func TestMalformedEnvelopeIsNeverSilentSuccess(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>gateway timeout</html>"},
		{"success without data", `{"success": true, "message": "ok"}`},
		{"data of wrong shape", `{"success": true, "data": "a string"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			_, err := c.ListWorkspaces(context.Background(), "tok", 1)
			var remote *gateway.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Contains(t, remote.Message, "unexpected response shape")
		})
	}
}

func TestSignInRejectsIncompleteResponse(t *testing.T) {
	// success=true but no user/token: treated as a malformed envelope, never
	// as an authenticated session.
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "message": "ok", "is_app_valid": true}`))
	}))

	_, err := c.SignIn(context.Background(), "a@b.c", "pw")
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
}

func TestQueryReturnsFailureNotFabrication(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	resp, err := c.Query(context.Background(), "anything")
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Empty(t, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestQueryPreservesSourceOrder(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": "42", "sources": [
			{"source_id": "s3", "file": "c.pdf", "page": 3, "summary": "third"},
			{"source_id": "s1", "file": "a.pdf", "page": 1, "summary": "first"},
			{"source_id": "s2", "file": "b.pdf", "page": 2, "summary": "second"}
		]}`))
	}))

	resp, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, resp.Sources, 3)
	assert.Equal(t, []string{"s3", "s1", "s2"}, []string{
		resp.Sources[0].SourceId, resp.Sources[1].SourceId, resp.Sources[2].SourceId,
	})
}

func TestUploadFilesReportsPerFileOutcome(t *testing.T) {
	var calls atomic.Int64
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success": false, "message": "ingestion crashed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))

	results := c.UploadFiles(context.Background(), []gateway.FileUpload{
		{Name: "ok.pdf", Content: strings.NewReader("%PDF-1.4")},
		{Name: "broken.pdf", Content: strings.NewReader("%PDF-1.4")},
	})
	require.Len(t, results, 2)
	assert.Equal(t, "ok.pdf", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "broken.pdf", results[1].Name)
	require.Error(t, results[1].Err)

	var remote *gateway.RemoteError
	require.ErrorAs(t, results[1].Err, &remote)
	assert.Equal(t, "ingestion crashed", remote.Message)
}

func TestCreateWorkspaceSendsWirePayload(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workspaces", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"ws_id": 7, "ws_name": "Reports", "user_id": 1, "is_active": true}}`))
	}))

	out, err := c.CreateWorkspace(context.Background(), "tok", dto.WorkspacePayload{
		WsName: "Reports", UserId: 1, IsActive: true,
	})
	require.NoError(t, err)
	require.NotNil(t, out.WsId)
	assert.Equal(t, int64(7), *out.WsId)
	assert.Equal(t, "Reports", out.WsName)
}
