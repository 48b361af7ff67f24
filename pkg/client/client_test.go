package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// newStubServer returns a server that mimics the platform's JSON API and
// records the Authorization header of every request it sees.
func newStubServer(t *testing.T, seenAuth *[]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		*seenAuth = append(*seenAuth, r.Header.Get("Authorization"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))

		if creds["password"] != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized: invalid password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  api.Identity{ID: "user_1", Email: creds["email"], Role: api.RoleUser},
			"token": "tok_abc123",
		})
	})

	mux.HandleFunc("/api/deploy", func(w http.ResponseWriter, r *http.Request) {
		*seenAuth = append(*seenAuth, r.Header.Get("Authorization"))

		var req api.DeployRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "upload_1", req.UploadID)
		assert.Equal(t, "blog", req.TemplateID)

		writeJSON(w, http.StatusOK, api.DeployResponse{
			Success: true,
			AppID:   "app_1_abcd",
			Message: "Deployment started",
			URL:     "/apps/app_1_abcd",
		})
	})

	mux.HandleFunc("/api/status/app_1_abcd", func(w http.ResponseWriter, r *http.Request) {
		*seenAuth = append(*seenAuth, r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, api.StatusRecord{
			Status:   api.DeployLive,
			Progress: 100,
			OwnerID:  "user_1",
			URL:      "/apps/app_1_abcd",
		})
	})

	return httptest.NewServer(mux)
}

func TestClientRoundTrip(t *testing.T) {
	var seenAuth []string
	srv := newStubServer(t, &seenAuth)
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(5*time.Second))

	user, err := c.Login("dev@test.local", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "dev@test.local", user.Email)

	resp, err := c.Deploy(api.DeployRequest{UploadID: "upload_1", TemplateID: "blog", Name: "Blog"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "app_1_abcd", resp.AppID)

	status, err := c.Status(resp.AppID)
	require.NoError(t, err)
	assert.Equal(t, api.DeployLive, status.Status)
	assert.Equal(t, 100, status.Progress)

	// Login carried no token; the session token flows on every later call
	require.Len(t, seenAuth, 3)
	assert.Empty(t, seenAuth[0])
	assert.Equal(t, "Bearer tok_abc123", seenAuth[1])
	assert.Equal(t, "Bearer tok_abc123", seenAuth[2])
}

func TestClientAPIError(t *testing.T) {
	var seenAuth []string
	srv := newStubServer(t, &seenAuth)
	defer srv.Close()

	c := NewClient(srv.URL)

	_, err := c.Login("dev@test.local", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error: 401")
	assert.Contains(t, err.Error(), "invalid password")
}

func TestClientWithToken(t *testing.T) {
	var seenAuth []string
	srv := newStubServer(t, &seenAuth)
	defer srv.Close()

	c := NewClient(srv.URL, WithToken("tok_preset"))

	_, err := c.Status("app_1_abcd")
	require.NoError(t, err)

	require.Len(t, seenAuth, 1)
	assert.Equal(t, "Bearer tok_preset", seenAuth[0])
}
