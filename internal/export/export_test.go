package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attenddash/internal/backend"
	"attenddash/internal/session"
	"attenddash/internal/view"
)

func newExporter(t *testing.T, handler http.Handler) (*Exporter, *httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := backend.New(srv.URL)
	client.HTTP = srv.Client()
	return &Exporter{
		Backend:   client,
		Store:     session.NewMemory(),
		SessionID: "s1",
	}, srv, &hits
}

func TestExportWithoutCredentialSendsNothing(t *testing.T) {
	exp, _, hits := newExporter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := exp.CSV(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = exp.XLSX(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	assert.Equal(t, int64(0), hits.Load())
}

func TestExportCSVPassthrough(t *testing.T) {
	exp, _, hits := newExporter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendance/report", r.URL.Path)
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		w.Write([]byte("name,status\nA,present\n"))
	}))
	require.NoError(t, exp.Store.Save(context.Background(), "s1", backend.Credential{Token: "T", Admin: "Admin"}))

	data, err := exp.CSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "name,status\nA,present\n", string(data))
	assert.Equal(t, int64(1), hits.Load())
}

func TestExportCSVUnauthorized(t *testing.T) {
	exp, _, _ := newExporter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	require.NoError(t, exp.Store.Save(context.Background(), "s1", backend.Credential{Token: "stale"}))

	_, err := exp.CSV(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestExportXLSXBuildsWorkbook(t *testing.T) {
	exp, _, hits := newExporter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendance/records", r.URL.Path)
		w.Write([]byte(`[{"name":"A","status":"present"},{"user":"B"}]`))
	}))
	require.NoError(t, exp.Store.Save(context.Background(), "s1", backend.Credential{Token: "T"}))

	data, err := exp.XLSX(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Attendance", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A", name)

	status, err := f.GetCellValue("Attendance", "E3")
	require.NoError(t, err)
	assert.Equal(t, "Present", status)
}

func TestWriteCSV(t *testing.T) {
	table := view.Build([]backend.Record{
		{"name": "A", "status": "present", "time": "09:00", "user_id": "u1"},
		{"user": "B"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	want := "#,Name,ID,Time,Status\n" +
		"1,A,u1,09:00,present\n" +
		"2,B,—,—,Present\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVHonorsFilter(t *testing.T) {
	table := view.Build([]backend.Record{
		{"name": "Alice"},
		{"name": "Bob"},
	}).Filter("ali")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Contains(t, buf.String(), "Alice")
	assert.NotContains(t, buf.String(), "Bob")
}
