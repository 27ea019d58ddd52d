package metrics

import (
	"context"
	"time"

	"github.com/mailsonar/mailsonar/ai"
)

// InstrumentedEmbedder decorates an ai.Embedder with Prometheus metrics.
type InstrumentedEmbedder struct {
	inner ai.Embedder
	model string
}

var _ ai.Embedder = (*InstrumentedEmbedder)(nil)

// NewInstrumentedEmbedder wraps an embedder so its calls are counted and
// timed under the given model label.
func NewInstrumentedEmbedder(inner ai.Embedder, model string) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, model: model}
}

func (e *InstrumentedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.inner.EmbedText(ctx, text)
	e.observe(start, 1, err)
	return vector, err
}

func (e *InstrumentedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := e.inner.EmbedTexts(ctx, texts)
	e.observe(start, len(texts), err)
	return vectors, err
}

func (e *InstrumentedEmbedder) observe(start time.Time, texts int, err error) {
	EmbeddingRequestDuration.WithLabelValues(e.model).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	EmbeddingRequestsTotal.WithLabelValues(e.model, status).Inc()
	if err == nil {
		EmbeddingTextsTotal.WithLabelValues(e.model).Add(float64(texts))
	}
}
