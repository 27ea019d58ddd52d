package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mailsonar/mailsonar/ai"
	"github.com/mailsonar/mailsonar/core"
)

const (
	// DefaultThreshold is the similarity score an email must reach to
	// qualify without invoking the fallback rule.
	DefaultThreshold = 0.1

	// DefaultTopK is the result count used by callers that don't ask for
	// a specific one.
	DefaultTopK = 5

	defaultBatchSize = 16
)

// Engine performs semantic search over an in-memory email corpus.
//
// An Engine is stateless across calls: every search re-embeds the whole
// corpus, which keeps it correct for mailbox-sized corpora and nothing
// larger. It holds no index and caches nothing.
type Engine struct {
	embedder  ai.Embedder
	modelName string
	threshold float32
	batchSize int
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithThreshold sets the default similarity threshold.
// The value must lie within [0, 1].
func WithThreshold(threshold float64) Option {
	return func(e *Engine) error {
		if err := core.ValidateThreshold(threshold); err != nil {
			return err
		}
		e.threshold = float32(threshold)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for corpus embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithBatchSize sets how many documents are embedded per provider call.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.batchSize = size
		return nil
	}
}

// WithEmbedder overrides the provider's embedder, e.g. to wrap it with
// instrumentation.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(e *Engine) error {
		if embedder != nil {
			e.embedder = embedder
		}
		return nil
	}
}

// NewEngine creates a search engine on top of an embedding provider.
// The provider is constructed once at the application root and shared;
// the engine never rebuilds it.
func NewEngine(provider ai.Provider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		embedder:  provider.Embedder(),
		modelName: provider.ModelName(),
		threshold: DefaultThreshold,
		batchSize: defaultBatchSize,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.pool.Release()
			return nil, err
		}
	}

	return e, nil
}

// Close releases the engine's worker pool.
func (e *Engine) Close() {
	e.pool.Release()
}

// ModelName returns the identifier of the active embedding model,
// for display and audit by presentation layers.
func (e *Engine) ModelName() string {
	return e.modelName
}

// Threshold returns the engine's default similarity threshold.
func (e *Engine) Threshold() float32 {
	return e.threshold
}

// FindSimilar ranks the corpus by semantic relevance to the query using
// the engine's default threshold. Returns up to maxHits results, best
// first; see Ranker.Rank for the fallback and topK semantics.
func (e *Engine) FindSimilar(ctx context.Context, query string, corpus []*core.Email, maxHits int) ([]*core.SearchResult, error) {
	return e.search(ctx, query, corpus, maxHits, e.threshold, nil)
}

// FindSimilarWithThreshold is FindSimilar with an explicit similarity
// threshold. Callers are responsible for validating the threshold range
// (core.ValidateThreshold) before calling.
func (e *Engine) FindSimilarWithThreshold(ctx context.Context, query string, corpus []*core.Email, maxHits int, threshold float32) ([]*core.SearchResult, error) {
	return e.search(ctx, query, corpus, maxHits, threshold, nil)
}

// FindSimilarWithMonitor is FindSimilarWithThreshold with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (e *Engine) FindSimilarWithMonitor(ctx context.Context, query string, corpus []*core.Email, maxHits int, threshold float32, monitor SearchMonitor) ([]*core.SearchResult, error) {
	return e.search(ctx, query, corpus, maxHits, threshold, monitor)
}

// FindSimilarEmails is FindSimilar with the scores stripped.
func (e *Engine) FindSimilarEmails(ctx context.Context, query string, corpus []*core.Email, maxHits int) ([]*core.Email, error) {
	results, err := e.FindSimilar(ctx, query, corpus, maxHits)
	if err != nil {
		return nil, err
	}
	emails := make([]*core.Email, len(results))
	for i, r := range results {
		emails[i] = r.Email
	}
	return emails, nil
}

func (e *Engine) search(ctx context.Context, query string, corpus []*core.Email, maxHits int, threshold float32, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	// An empty corpus costs nothing: no embedding calls at all.
	if len(corpus) == 0 {
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	queryVec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	queryVec = normalizeVector(queryVec)
	monitor.AfterQueryEmbedding(queryVec)

	vectors, err := e.embedCorpus(ctx, corpus)
	if err != nil {
		e.logger.Error("error generating embeddings for corpus", "corpus", len(corpus), "err", err)
		return nil, err
	}
	monitor.AfterCorpusEmbedding(len(vectors))

	results := NewRanker(threshold).rank(queryVec, corpus, vectors, maxHits, monitor)
	monitor.Finish(results)
	return results, nil
}

// embedCorpus embeds every email in batches dispatched on the worker pool.
// Results land at the index of their source email, so concurrency never
// changes observable scores or order.
func (e *Engine) embedCorpus(ctx context.Context, corpus []*core.Email) ([][]float32, error) {
	texts := make([]string, len(corpus))
	for i, email := range corpus {
		texts[i] = DocumentText(email)
	}

	vectors := make([][]float32, len(corpus))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		task := func() {
			defer wg.Done()
			batch, err := e.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				setErr(err)
				return
			}
			if len(batch) != end-start {
				setErr(fmt.Errorf("embedding result mismatch. expected %d, received %d", end-start, len(batch)))
				return
			}
			for i, vec := range batch {
				vectors[start+i] = normalizeVector(vec)
			}
		}
		if err := e.pool.Submit(task); err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
