package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New(srv.URL)
	c.HTTP = srv.Client()
	return c
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/login", r.URL.Path)
		require.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "admin@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "correct", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"T","token_type":"bearer","admin":{"name":"Admin","email":"admin@example.com"}}`))
	}))
	defer srv.Close()

	cred, err := newTestClient(srv).Login(context.Background(), "admin@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "T", cred.Token)
	assert.Equal(t, "Admin", cred.Admin)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid email or password"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), "admin@example.com", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "Invalid email or password", authErr.Detail)
}

func TestLoginAdminFallsBackToEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"T"}`))
	}))
	defer srv.Close()

	cred, err := newTestClient(srv).Login(context.Background(), "admin@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", cred.Admin)
}

func TestListRecordsAttachesBearerAndKeepsOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/attendance/records", r.URL.Path)
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"A","status":"present"},{"user":"B"}]`))
	}))
	defer srv.Close()

	records, err := newTestClient(srv).ListRecords(context.Background(), "T")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0]["name"])
	assert.Equal(t, "B", records[1]["user"])
}

func TestListRecordsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	records, err := newTestClient(srv).ListRecords(context.Background(), "T")
	require.NoError(t, err)
	assert.Len(t, records, 0)
}

func TestListRecordsClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"server error", http.StatusInternalServerError, ErrBackendError},
		{"not found", http.StatusNotFound, ErrBackendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv).ListRecords(context.Background(), "T")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListRecordsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).ListRecords(context.Background(), "T")
	assert.ErrorIs(t, err, ErrBackendUnreachable)
}

func TestDownloadReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/attendance/report", r.URL.Path)
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("name,status\nA,present\n"))
	}))
	defer srv.Close()

	data, contentType, err := newTestClient(srv).DownloadReport(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "name,status\nA,present\n", string(data))
}

func TestDownloadReportUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv).DownloadReport(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
