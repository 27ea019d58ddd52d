package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsonar/mailsonar/ai/mock"
	"github.com/mailsonar/mailsonar/core"
	"github.com/mailsonar/mailsonar/mailstore"
	"github.com/mailsonar/mailsonar/metrics"
	"github.com/mailsonar/mailsonar/search"
)

// fakeStore serves a canned mailbox without a network connection.
type fakeStore struct {
	emails   []*core.Email
	fetchErr error
	closed   bool
}

func (f *fakeStore) FetchAll(ctx context.Context, folder string) ([]*core.Email, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.emails, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func testCorpus() []*core.Email {
	return []*core.Email{
		{Subject: "Invoice due", From: "billing@example.com", Date: "Fri, 02 Jan 2026 15:04:05 +0000", Body: "Please pay the invoice", FullBody: "Please pay the invoice by Friday"},
		{Subject: "Lunch?", From: "alice@example.com", Date: "Thu, 01 Jan 2026 12:00:00 +0000", Body: "Want to grab lunch?", FullBody: "Want to grab lunch today?"},
	}
}

// topicEmbedder maps payment-flavored text near one axis and everything
// else near an orthogonal one.
func topicEmbedder() *mock.MockEmbedder {
	vec := func(text string) []float32 {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "invoice") || strings.Contains(lower, "payment") || strings.Contains(lower, "pay") {
			return []float32{0.95, 0.05, 0}
		}
		return []float32{0.02, 0.9, 0.1}
	}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return vec(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = vec(text)
		}
		return vectors, nil
	}
	return embedder
}

func newTestServer(t *testing.T, store *fakeStore) *Server {
	t.Helper()

	engine, err := search.NewEngine(mock.NewMockProviderWithEmbedder(topicEmbedder()), search.WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	server, err := NewServer(engine, func(host, username, password string) (mailstore.Store, error) {
		return store, nil
	})
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func validSearchRequest() SearchRequest {
	return SearchRequest{
		IMAPHost: "imap.example.com",
		Email:    "alice@example.com",
		Password: "secret",
		Query:    "payment reminder",
	}
}

func TestHandleFetch(t *testing.T) {
	store := &fakeStore{emails: testCorpus()}
	server := newTestServer(t, store)

	rr := doJSON(t, server, http.MethodPost, "/fetch", FetchRequest{
		IMAPHost: "imap.example.com",
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp FetchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Invoice due", resp.Emails[0].Subject)
	assert.True(t, store.closed, "the store must be closed after the request")
}

func TestHandleFetch_MissingCredentials(t *testing.T) {
	server := newTestServer(t, &fakeStore{})

	rr := doJSON(t, server, http.MethodPost, "/fetch", FetchRequest{IMAPHost: "imap.example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleFetch_StoreError(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("connection reset")}
	server := newTestServer(t, store)

	rr := doJSON(t, server, http.MethodPost, "/fetch", FetchRequest{
		IMAPHost: "imap.example.com",
		Email:    "alice@example.com",
		Password: "secret",
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "connection reset")
}

func TestHandleSearch(t *testing.T) {
	server := newTestServer(t, &fakeStore{emails: testCorpus()})

	req := validSearchRequest()
	req.IncludeScores = true

	rr := doJSON(t, server, http.MethodPost, "/semantic-search", req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "payment reminder", resp.Query)
	assert.Equal(t, mock.ModelName, resp.Model)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Invoice due", resp.Results[0].Subject)
	require.NotNil(t, resp.Results[0].SimilarityScore)
	assert.NotEmpty(t, resp.Results[0].ScoreCategory)
}

func TestHandleSearch_ScoresOmittedByDefault(t *testing.T) {
	server := newTestServer(t, &fakeStore{emails: testCorpus()})

	rr := doJSON(t, server, http.MethodPost, "/semantic-search", validSearchRequest())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Nil(t, resp.Results[0].SimilarityScore)
	assert.Empty(t, resp.Results[0].ScoreCategory)
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	server := newTestServer(t, &fakeStore{emails: testCorpus()})

	req := validSearchRequest()
	req.Query = "   "

	rr := doJSON(t, server, http.MethodPost, "/semantic-search", req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSearch_ThresholdOutOfRange(t *testing.T) {
	server := newTestServer(t, &fakeStore{emails: testCorpus()})

	for _, threshold := range []float64{-0.1, 1.5} {
		req := validSearchRequest()
		req.MinThreshold = &threshold

		rr := doJSON(t, server, http.MethodPost, "/semantic-search", req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "threshold %g must be rejected", threshold)
	}
}

func TestHandleSearch_CustomThresholdAndTopK(t *testing.T) {
	server := newTestServer(t, &fakeStore{emails: testCorpus()})

	threshold := 0.9
	req := validSearchRequest()
	req.MinThreshold = &threshold
	req.TopK = 1
	req.IncludeScores = true

	rr := doJSON(t, server, http.MethodPost, "/semantic-search", req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	// Only the invoice email clears 0.9.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Invoice due", resp.Results[0].Subject)
}

func TestHandleSearch_FallbackIncrementsCounter(t *testing.T) {
	// A lunch-only mailbox scores below the default threshold for a
	// payment query, so the single best match comes from the fallback.
	store := &fakeStore{emails: testCorpus()[1:]}
	server := newTestServer(t, store)

	before := testutil.ToFloat64(metrics.SearchFallbacksTotal)

	rr := doJSON(t, server, http.MethodPost, "/semantic-search", validSearchRequest())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Lunch?", resp.Results[0].Subject)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SearchFallbacksTotal))
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	server := newTestServer(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/semantic-search", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, &fakeStore{})

	rr := doJSON(t, server, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestIndex(t *testing.T) {
	server := newTestServer(t, &fakeStore{})

	rr := doJSON(t, server, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "mailsonar", resp["service"])
}

func TestScoreCategory(t *testing.T) {
	tests := []struct {
		score float32
		want  string
	}{
		{0.9, "high"},
		{0.5, "high"},
		{0.4, "medium"},
		{0.3, "medium"},
		{0.2, "low"},
		{0.1, "low"},
		{0.05, "very_low"},
		{-0.2, "very_low"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ScoreCategory(tc.score), "score %g", tc.score)
	}
}
