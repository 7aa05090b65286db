package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"cicada/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *store.TokenStore) {
	t.Helper()

	tokens, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		http.DefaultTransport.(*http.Transport).CloseIdleConnections()
	})

	return NewClient(srv.URL, tokens, zap.NewNop()), tokens
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer A1", gotAuth)
	assert.Equal(t, "alice", user.Username)
}

func TestClient_MissingTokenStillSendsRequest(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Authentication credentials were not provided."})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Profile(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Empty(t, gotAuth)
}

func TestClient_RefreshAndRetryOn401(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice"})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "R1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid"})
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"), "refresh must not carry a bearer header")
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int32(1), refreshCalls.Load())

	// The new access token is persisted.
	access, ok := tokens.Access()
	require.True(t, ok)
	assert.Equal(t, "A2", access)
}

func TestClient_FailedRefreshClearsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	_, err := client.Profile(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, ok := tokens.Access()
	assert.False(t, ok)
	_, ok = tokens.Refresh()
	assert.False(t, ok)
}

func TestClient_NoSecondRetryAfterRefresh(t *testing.T) {
	var profileCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	// One original attempt, one refresh, one retry. Never a second cycle.
	assert.Equal(t, int32(2), profileCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestClient_MissingRefreshTokenAbandonsRecovery(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetAccess("A1"))

	_, err := client.Profile(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), refreshCalls.Load())
}

func TestClient_ErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   string
	}{
		{"error field", http.StatusBadRequest, map[string]string{"error": "Username already exists"}, "Username already exists"},
		{"detail field", http.StatusForbidden, map[string]string{"detail": "Not authenticated"}, "Not authenticated"},
		{"no body", http.StatusInternalServerError, nil, "HTTP error! status: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/register/", func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			client, _ := newTestClient(t, mux)

			_, err := client.Register(context.Background(), RegisterRequest{Username: "bob", Email: "b@example.com", Password: "pw"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestClient_RegisterCarriesNoBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusCreated, map[string]any{
			"user":    map[string]any{"id": 2, "username": "bob"},
			"message": "Registration successful",
		})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	resp, err := client.Register(context.Background(), RegisterRequest{Username: "bob", Email: "b@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "bob", resp.User.Username)
}

func TestClient_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	const callers = 8

	var refreshCalls, expiredServed atomic.Int32
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A2" {
			expiredServed.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "username": "alice"})
	})
	mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		<-release // hold the refresh open so every caller joins it
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})

	client, tokens := newTestClient(t, mux)
	require.NoError(t, tokens.SetPair("A1", "R1"))

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Profile(context.Background())
		}(i)
	}

	// Hold the refresh open until every caller has seen its 401 and had time
	// to join the in-flight refresh, then let it finish.
	for expiredServed.Load() < callers || refreshCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	tokens, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer tokens.Close()

	client := NewClient("http://127.0.0.1:1", tokens, zap.NewNop())

	_, err = client.History(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not APIErrors")
}
