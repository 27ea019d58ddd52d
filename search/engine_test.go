package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsonar/mailsonar/ai/mock"
	"github.com/mailsonar/mailsonar/core"
)

func TestNewEngine(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(mock.NewMockProvider())
		require.NoError(t, err)
		defer engine.Close()

		assert.Equal(t, mock.ModelName, engine.ModelName())
		assert.Equal(t, float32(DefaultThreshold), engine.Threshold())
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(nil)
		assert.Equal(t, ErrProviderRequired, err)
	})

	t.Run("with custom threshold", func(t *testing.T) {
		engine, err := NewEngine(mock.NewMockProvider(), WithThreshold(0.3))
		require.NoError(t, err)
		defer engine.Close()

		assert.Equal(t, float32(0.3), engine.Threshold())
	})

	t.Run("out-of-range threshold rejected", func(t *testing.T) {
		_, err := NewEngine(mock.NewMockProvider(), WithThreshold(1.1))
		assert.ErrorIs(t, err, core.ErrThresholdOutOfRange)
	})
}

func TestFindSimilar_EmptyCorpus(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)
	defer engine.Close()

	results, err := engine.FindSimilar(context.Background(), "anything", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	// No embedding work may happen for an empty corpus.
	assert.Equal(t, 0, embedder.CallCount())
}

func TestFindSimilar_InvoiceRanksAboveLunch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return topicVector(text), nil
	}
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = topicVector(text)
		}
		return vectors, nil
	}

	engine, err := NewEngine(mock.NewMockProviderWithEmbedder(embedder), WithPoolSize(1))
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{
		{Subject: "Invoice due", FullBody: "Please pay the invoice by Friday"},
		{Subject: "Lunch?", FullBody: "Want to grab lunch today?"},
	}

	results, err := engine.FindSimilarWithThreshold(context.Background(), "payment reminder", corpus, 5, 0.05)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, corpus[0], results[0].Email)
	if len(results) > 1 {
		assert.Greater(t, results[0].Score, results[1].Score)
	}
}

// topicVector maps payment-flavored text near one axis and everything else
// near an orthogonal one, standing in for a real embedding model.
func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "invoice") || strings.Contains(lower, "payment") || strings.Contains(lower, "pay") {
		return []float32{0.95, 0.05, 0}
	}
	return []float32{0.02, 0.9, 0.1}
}

func TestFindSimilar_EmptyEmailUsesPlaceholder(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	var mu sync.Mutex
	var embedded []string
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		embedded = append(embedded, texts...)
		mu.Unlock()
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0}
		}
		return vectors, nil
	}

	engine, err := NewEngine(mock.NewMockProviderWithEmbedder(embedder), WithPoolSize(1))
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{{Subject: "", FullBody: ""}}
	results, err := engine.FindSimilar(context.Background(), "any query", corpus, 5)
	require.NoError(t, err)

	require.Len(t, embedded, 1)
	assert.Equal(t, EmptyDocPlaceholder, embedded[0])

	require.Len(t, results, 1)
	assert.False(t, math.IsNaN(float64(results[0].Score)))
	assert.False(t, math.IsInf(float64(results[0].Score), 0))
}

func TestFindSimilar_DegenerateQueryVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0, 0, 0}, nil // zero-norm, degenerate
	}

	engine, err := NewEngine(mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{
		{Subject: "first"},
		{Subject: "second"},
	}

	results, err := engine.FindSimilar(context.Background(), "query", corpus, 5)
	require.NoError(t, err)

	// Every score is 0, below the default threshold, so the fallback
	// returns the earliest email.
	require.Len(t, results, 1)
	assert.Equal(t, corpus[0], results[0].Email)
	assert.Equal(t, float32(0), results[0].Score)
}

func TestFindSimilar_TopKZeroWithQualifyingEmails(t *testing.T) {
	engine, err := NewEngine(mock.NewMockProvider(), WithThreshold(0.0))
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{{Subject: "hit"}}
	results, err := engine.FindSimilar(context.Background(), "hit", corpus, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_FallbackThroughEngine(t *testing.T) {
	engine, err := NewEngine(mock.NewMockProvider())
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{
		{Subject: "alpha", FullBody: "first message"},
		{Subject: "beta", FullBody: "second message"},
	}

	// A threshold of 1.0 exceeds any realistic score, forcing the
	// fallback: exactly one result, the best of the whole corpus.
	results, err := engine.FindSimilarWithThreshold(context.Background(), "gamma", corpus, 5, 1.0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	all, err := engine.FindSimilarWithThreshold(context.Background(), "gamma", corpus, 5, 0.0)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, all[0].Email, results[0].Email)
}

func TestFindSimilarEmails_StripsScores(t *testing.T) {
	engine, err := NewEngine(mock.NewMockProvider(), WithThreshold(0.0))
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{
		{Subject: "one"},
		{Subject: "two"},
	}

	emails, err := engine.FindSimilarEmails(context.Background(), "query", corpus, 5)
	require.NoError(t, err)

	results, err := engine.FindSimilar(context.Background(), "query", corpus, 5)
	require.NoError(t, err)
	require.Len(t, emails, len(results))
	for i := range results {
		assert.Equal(t, results[i].Email, emails[i])
	}
}

func TestFindSimilar_BatchingPreservesOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(
		mock.NewMockProviderWithEmbedder(embedder),
		WithThreshold(0.0),
		WithBatchSize(3),
		WithPoolSize(1),
	)
	require.NoError(t, err)
	defer engine.Close()

	corpus := make([]*core.Email, 10)
	for i := range corpus {
		corpus[i] = &core.Email{Subject: strings.Repeat("x", i+1)}
	}

	batched, err := engine.FindSimilar(context.Background(), "query", corpus, len(corpus))
	require.NoError(t, err)

	single, err := NewEngine(
		mock.NewMockProviderWithEmbedder(mock.NewMockEmbedder()),
		WithThreshold(0.0),
		WithBatchSize(100),
	)
	require.NoError(t, err)
	defer single.Close()

	whole, err := single.FindSimilar(context.Background(), "query", corpus, len(corpus))
	require.NoError(t, err)

	require.Len(t, batched, len(whole))
	for i := range whole {
		assert.Equal(t, whole[i].Email, batched[i].Email)
		assert.InDelta(t, float64(whole[i].Score), float64(batched[i].Score), 1e-6)
	}
}

func TestFindSimilar_EmbedderErrorPropagates(t *testing.T) {
	wantErr := errors.New("model offline")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, wantErr
	}

	engine, err := NewEngine(mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.FindSimilar(context.Background(), "query", []*core.Email{{Subject: "s"}}, 5)
	assert.ErrorIs(t, err, wantErr)
}

// recordingMonitor captures the search stages for assertions.
type recordingMonitor struct {
	started   string
	queryDim  int
	corpus    int
	kept      int
	threshold float32
	fallback  *core.SearchResult
	finished  []*core.SearchResult
}

var _ SearchMonitor = (*recordingMonitor)(nil)

func (m *recordingMonitor) Start(query string)                   { m.started = query }
func (m *recordingMonitor) AfterQueryEmbedding(vector []float32) { m.queryDim = len(vector) }
func (m *recordingMonitor) AfterCorpusEmbedding(count int)       { m.corpus = count }
func (m *recordingMonitor) AfterThresholdFilter(kept int, threshold float32) {
	m.kept = kept
	m.threshold = threshold
}
func (m *recordingMonitor) FallbackHit(result *core.SearchResult) { m.fallback = result }
func (m *recordingMonitor) Finish(results []*core.SearchResult)   { m.finished = results }

func TestFindSimilarWithMonitor(t *testing.T) {
	engine, err := NewEngine(mock.NewMockProvider())
	require.NoError(t, err)
	defer engine.Close()

	corpus := []*core.Email{{Subject: "a"}, {Subject: "b"}}
	monitor := &recordingMonitor{}

	results, err := engine.FindSimilarWithMonitor(context.Background(), "query", corpus, 5, 1.0, monitor)
	require.NoError(t, err)

	assert.Equal(t, "query", monitor.started)
	assert.Equal(t, 384, monitor.queryDim)
	assert.Equal(t, 2, monitor.corpus)
	assert.Equal(t, 0, monitor.kept)
	assert.Equal(t, float32(1.0), monitor.threshold)
	require.NotNil(t, monitor.fallback)
	assert.Equal(t, results, monitor.finished)
}
