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


// Package mailsonar wires the embedding provider, search engine, mailbox
// transport and snapshot cache into one application facade.
package mailsonar

import (
	"context"
	"log/slog"

	"github.com/mailsonar/mailsonar/ai"
	"github.com/mailsonar/mailsonar/ai/openai"
	"github.com/mailsonar/mailsonar/config"
	"github.com/mailsonar/mailsonar/mailstore"
	"github.com/mailsonar/mailsonar/mailstore/badgercache"
	"github.com/mailsonar/mailsonar/metrics"
	"github.com/mailsonar/mailsonar/search"
)

// App holds the wired components for one mailsonar instance.
type App struct {
	cfg      config.Config
	provider ai.Provider
	engine   *search.Engine
	logger   *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	provider ai.Provider
}

// WithProvider substitutes the embedding provider, bypassing the OpenAI
// endpoint probe. Used in tests.
func WithProvider(provider ai.Provider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// NewApp connects to the embedding provider and builds the search engine.
// The mailbox connection and snapshot cache are opened lazily via Dial and
// OpenCache.
func NewApp(ctx context.Context, cfg config.Config, opts ...AppOption) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithHost(cfg.AI.Host),
			ai.WithModels(cfg.AI.Models...),
		)
		var err error
		provider, err = openai.NewProvider(ctx, aiConfig)
		if err != nil {
			return nil, err
		}
	}

	engine, err := search.NewEngine(provider,
		search.WithThreshold(cfg.Search.Threshold),
		search.WithEmbedder(metrics.NewInstrumentedEmbedder(provider.Embedder(), provider.ModelName())),
	)
	if err != nil {
		provider.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		provider: provider,
		engine:   engine,
		logger:   slog.Default(),
	}, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Engine returns the search engine.
func (a *App) Engine() *search.Engine {
	return a.engine
}

// Provider returns the embedding provider.
func (a *App) Provider() ai.Provider {
	return a.provider
}

// Dial opens an IMAP session with the configured credentials.
// Caller must close the returned store.
func (a *App) Dial() (mailstore.Store, error) {
	if err := a.cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	return mailstore.Dial(a.cfg.IMAP.Host, a.cfg.IMAP.User, a.cfg.IMAP.Password)
}

// OpenCache opens the configured snapshot cache.
// Caller must close the returned cache.
func (a *App) OpenCache() (*badgercache.Cache, error) {
	return badgercache.Open(a.cfg.Cache.Dir, false)
}

// Close releases the engine and the provider.
func (a *App) Close() error {
	a.engine.Close()
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		return err
	}
	return nil
}
