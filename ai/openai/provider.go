// Copyright 2026 The mailsonar authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailsonar/mailsonar/ai"
)

// probeTimeout bounds the embedding call used to verify that a candidate
// model actually answers.
const probeTimeout = 30 * time.Second

// Provider implements ai.Provider using OpenAI-compatible embedding services.
// It settles on the first working model from the configured candidate list.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	model    string
	logger   *slog.Logger
}

// NewProvider creates an embedding provider by trying each candidate model
// in order. Every candidate is probed with a small embedding request; the
// first one that answers wins. If all candidates fail, the returned error
// wraps ai.ErrProviderUnavailable together with each attempt's failure.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(ctx context.Context, config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")

	var attemptErrs []error
	for _, model := range config.Models {
		embedder, err := newEmbedder(config.Host, model)
		if err == nil {
			err = probe(ctx, embedder)
		}
		if err != nil {
			logger.Warn("candidate embedding model unavailable", "model", model, "err", err)
			attemptErrs = append(attemptErrs, fmt.Errorf("model %q: %w", model, err))
			continue
		}

		logger.Info("embedding model ready", "model", model, "host", config.Host)
		return &Provider{
			config:   config,
			embedder: embedder,
			model:    model,
			logger:   logger,
		}, nil
	}

	return nil, fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, errors.Join(attemptErrs...))
}

// probe issues a tiny embedding request to confirm the model is loadable
// and reachable before the provider is handed out.
func probe(ctx context.Context, embedder *Embedder) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	vector, err := embedder.EmbedText(ctx, "ping")
	if err != nil {
		return err
	}
	if len(vector) == 0 {
		return errors.New("probe returned an empty vector")
	}
	return nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ModelName returns the identifier of the model the provider settled on.
func (p *Provider) ModelName() string {
	return p.model
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
