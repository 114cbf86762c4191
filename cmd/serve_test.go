package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobpulse/internal/model"
	"github.com/sells-group/jobpulse/internal/orchestrator"
	"github.com/sells-group/jobpulse/internal/trace"
)

type stubRunner struct {
	outcome *model.ExtractionOutcome
	err     error
	jobID   string
	rawText string
}

func (s *stubRunner) extractOne(ctx context.Context, jobID, rawText string) (*model.ExtractionOutcome, error) {
	s.jobID = jobID
	s.rawText = rawText
	return s.outcome, s.err
}

func newServeStore(t *testing.T) trace.Store {
	t.Helper()
	s, err := trace.NewSQLite(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestServeHealth(t *testing.T) {
	router := newRouter(&stubRunner{}, newServeStore(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServeExtract(t *testing.T) {
	runner := &stubRunner{
		outcome: &model.ExtractionOutcome{
			JobID:          "job-1",
			Status:         model.OutcomeSuccess,
			SchemaVersion:  "v2",
			StructuredData: map[string]any{"role_title": "Engineer"},
			Attempts:       []model.ProviderAttempt{},
			FinishedAt:     time.Now().UTC(),
		},
	}
	router := newRouter(runner, newServeStore(t))

	body := strings.NewReader(`{"job_id":"job-1","text":"Software Engineer at Acme"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "job-1", runner.jobID)
	assert.Equal(t, "Software Engineer at Acme", runner.rawText)

	var got model.ExtractionOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.OutcomeSuccess, got.Status)
	assert.Equal(t, "Engineer", got.StructuredData["role_title"])
}

func TestServeExtractBadRequest(t *testing.T) {
	router := newRouter(&stubRunner{}, newServeStore(t))

	for _, body := range []string{`not json`, `{"job_id":"job-1"}`, `{"text":"hi"}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestServeExtractEmptyPreference(t *testing.T) {
	router := newRouter(&stubRunner{err: orchestrator.ErrEmptyPreference}, newServeStore(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract",
		strings.NewReader(`{"job_id":"job-1","text":"hi"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeGetJob(t *testing.T) {
	st := newServeStore(t)
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveOutcome(context.Background(), &model.ExtractionOutcome{
		JobID:         "job-1",
		Status:        model.OutcomeExhausted,
		SchemaVersion: "v2",
		Attempts:      []model.ProviderAttempt{},
		StartedAt:     now,
		FinishedAt:    now.Add(time.Second),
	}))

	router := newRouter(&stubRunner{}, st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ExtractionOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.OutcomeExhausted, got.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
