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


package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mailsonar/mailsonar"
	"github.com/mailsonar/mailsonar/config"
	"github.com/mailsonar/mailsonar/core"
	"github.com/mailsonar/mailsonar/mailstore"
	"github.com/mailsonar/mailsonar/mailstore/badgercache"
	"github.com/mailsonar/mailsonar/metrics"
	"github.com/mailsonar/mailsonar/web"
)

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if folder := c.String("folder"); folder != "" {
		cfg.IMAP.Folder = folder
	}
	return cfg, nil
}

func fetchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	store, err := mailstoreDial(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.IMAP.Host, err)
	}
	defer store.Close()

	emails, err := store.FetchAll(c.Context, cfg.IMAP.Folder)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", cfg.IMAP.Folder, err)
	}

	fmt.Printf("Fetched %d emails from %s\n", len(emails), cfg.IMAP.Folder)

	limit := c.Int("limit")
	for i, email := range emails {
		if limit > 0 && i >= limit {
			fmt.Printf("... and %d more\n", len(emails)-limit)
			break
		}
		fmt.Println(summarize(i+1, email))
	}

	if c.Bool("save") {
		cache, err := badgercache.Open(cfg.Cache.Dir, false)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer cache.Close()

		if err := cache.SaveSnapshot(cfg.IMAP.Folder, emails); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		fmt.Printf("Saved snapshot of %s (%d emails)\n", cfg.IMAP.Folder, len(emails))
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a search query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if threshold := c.Float64("threshold"); threshold >= 0 {
		if err := core.ValidateThreshold(threshold); err != nil {
			return err
		}
		cfg.Search.Threshold = threshold
	}

	corpus, fetchedAt, err := loadCorpus(c, cfg)
	if err != nil {
		return err
	}
	if fetchedAt != nil {
		fmt.Fprintf(os.Stderr, "Searching snapshot of %s from %s\n",
			cfg.IMAP.Folder, fetchedAt.Format(time.RFC1123))
	}

	app, err := mailsonar.NewApp(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to embedding service: %w", err)
	}
	defer app.Close()

	engine := app.Engine()

	var results []*core.SearchResult
	if c.Bool("explain") {
		results, err = engine.FindSimilarWithMonitor(c.Context, query, corpus,
			c.Int("top-k"), engine.Threshold(), &explainMonitor{})
	} else {
		results, err = engine.FindSimilar(c.Context, query, corpus, c.Int("top-k"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d matches for %q (model %s)\n", len(results), query, engine.ModelName())
	for i, result := range results {
		line := summarize(i+1, result.Email)
		if c.Bool("scores") {
			line = fmt.Sprintf("%s  [%0.3f %s]", line, result.Score, scoreLabel(result.Score))
		}
		fmt.Println(line)
	}

	return nil
}

// loadCorpus returns the emails to search and, when the snapshot cache is
// used, the time they were fetched.
func loadCorpus(c *cli.Context, cfg config.Config) ([]*core.Email, *time.Time, error) {
	if c.Bool("cached") {
		cache, err := badgercache.Open(cfg.Cache.Dir, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache: %w", err)
		}
		defer cache.Close()

		snapshot, err := cache.LoadSnapshot(cfg.IMAP.Folder)
		if err != nil {
			return nil, nil, fmt.Errorf("no snapshot for %s, run fetch --save first: %w", cfg.IMAP.Folder, err)
		}
		return snapshot.Emails, &snapshot.FetchedAt, nil
	}

	if err := cfg.ValidateCredentials(); err != nil {
		return nil, nil, err
	}

	store, err := mailstoreDial(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.IMAP.Host, err)
	}
	defer store.Close()

	emails, err := store.FetchAll(c.Context, cfg.IMAP.Folder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", cfg.IMAP.Folder, err)
	}
	return emails, nil, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port > 0 {
		cfg.HTTP.Port = port
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := mailsonar.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to embedding service: %w", err)
	}
	defer app.Close()

	server, err := web.NewServer(app.Engine(), nil, web.WithTopK(cfg.Search.TopK))
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	return server.ListenAndServe(ctx, addr,
		time.Duration(cfg.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
}

func cacheListCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	cache, err := badgercache.Open(cfg.Cache.Dir, false)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()

	folders, err := cache.Folders()
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		fmt.Println("No cached folders")
		return nil
	}

	for _, folder := range folders {
		snapshot, err := cache.LoadSnapshot(folder)
		if err != nil {
			fmt.Printf("%s (unreadable: %v)\n", folder, err)
			continue
		}
		fmt.Printf("%s: %d emails, fetched %s\n",
			folder, len(snapshot.Emails), snapshot.FetchedAt.Format(time.RFC1123))
	}
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	cache, err := badgercache.Open(cfg.Cache.Dir, false)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer cache.Close()

	folders := c.Args().Slice()
	if len(folders) == 0 {
		folders, err = cache.Folders()
		if err != nil {
			return err
		}
	}

	for _, folder := range folders {
		if err := cache.DeleteSnapshot(folder); err != nil {
			return fmt.Errorf("failed to delete snapshot %s: %w", folder, err)
		}
		fmt.Printf("Deleted snapshot of %s\n", folder)
	}
	return nil
}

func mailstoreDial(cfg config.Config) (mailstore.Store, error) {
	return mailstore.Dial(cfg.IMAP.Host, cfg.IMAP.User, cfg.IMAP.Password)
}

// explainMonitor prints each search stage to stderr.
type explainMonitor struct{}

func (m *explainMonitor) Start(query string) {
	fmt.Fprintf(os.Stderr, "query: %q\n", query)
}

func (m *explainMonitor) AfterQueryEmbedding(vector []float32) {
	fmt.Fprintf(os.Stderr, "query embedded: %d dimensions\n", len(vector))
}

func (m *explainMonitor) AfterCorpusEmbedding(count int) {
	fmt.Fprintf(os.Stderr, "corpus embedded: %d documents\n", count)
}

func (m *explainMonitor) AfterThresholdFilter(kept int, threshold float32) {
	fmt.Fprintf(os.Stderr, "threshold %0.2f kept %d documents\n", threshold, kept)
}

func (m *explainMonitor) FallbackHit(result *core.SearchResult) {
	fmt.Fprintf(os.Stderr, "nothing met the threshold, falling back to best match %q [%0.3f]\n",
		result.Email.Subject, result.Score)
}

func (m *explainMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(os.Stderr, "returning %d results\n", len(results))
}
