// Copyright 2025 Poiesic Systems
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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/hybridrag"
	"github.com/poiesic/hybridrag/config"
	"github.com/poiesic/hybridrag/core"
	"github.com/poiesic/hybridrag/httpapi"
	"github.com/poiesic/hybridrag/index"
	"github.com/poiesic/hybridrag/search"
	"github.com/urfave/cli/v2"
)

const previewRunes = 50

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. Extra options are passed to every hybridrag.Open.
func newApp(out io.Writer, opts ...hybridrag.Option) *cli.App {
	cmds := &commands{out: out, opts: opts}
	return &cli.App{
		Name:      "hybridrag",
		Usage:     "Hybrid retrieval over local documents and web search",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"HYBRIDRAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Build the embedding index from the configured sources",
				Action: cmds.index,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Discard a populated index and rebuild it",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 10,
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Retrieve passages for a query",
				ArgsUsage: "<query>",
				Action:    cmds.retrieve,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "local-only",
						Usage: "Skip web search",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print passages as JSON",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve retrieval over HTTP",
				Action: cmds.serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:  "config",
				Usage: "Inspect configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: cmds.showConfig,
					},
				},
			},
		},
	}
}

type commands struct {
	out  io.Writer
	opts []hybridrag.Option
}

func (cmds *commands) open(c *cli.Context, extra ...hybridrag.Option) (*hybridrag.System, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	opts := append(append([]hybridrag.Option(nil), cmds.opts...), extra...)
	sys, err := hybridrag.Open(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open retrieval system: %w", err)
	}
	return sys, nil
}

func (cmds *commands) index(c *cli.Context) error {
	interval := c.Int("report-interval")
	if interval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	progress := index.NewProgressTracker(os.Stderr, interval)

	sys, err := cmds.open(c, hybridrag.WithProgress(progress))
	if err != nil {
		return err
	}
	defer sys.Close()

	if c.Bool("force") {
		if err := sys.Rebuild(c.Context, true); err != nil {
			return fmt.Errorf("rebuild failed: %w", err)
		}
	}

	count, err := sys.Index().Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmds.out, "Index: %s\n", sys.Config().Paths.IndexDir)
	fmt.Fprintf(cmds.out, "Passages: %d\n", count)
	return nil
}

func (cmds *commands) retrieve(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	sys, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	mode := search.ModeLocalOnly
	if sys.WebEnabled() && !c.Bool("local-only") {
		mode = search.ModeHybrid
	}

	passages, err := sys.RetrieveMode(c.Context, query, mode)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(cmds.out)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}
	if len(passages) == 0 {
		fmt.Fprintln(cmds.out, "No passages found.")
		return nil
	}
	for i, p := range passages {
		fmt.Fprintf(cmds.out, "%d. [%s] %s\n   %s\n", i+1, p.Source, label(p), preview(p.Content, previewRunes))
	}
	return nil
}

func (cmds *commands) serve(c *cli.Context) error {
	sys, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	addr := c.String("addr")
	if addr == "" {
		addr = sys.Config().Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(sys, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr, "web_enabled", sys.WebEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-c.Context.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (cmds *commands) showConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.Embedding.Token != "" {
		cfg.Embedding.Token = "****"
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = cmds.out.Write(data)
	return err
}

// label picks the most specific heading, falling back to the web title.
func label(p core.Passage) string {
	for _, key := range []string{"Header3", "Header2", "Header1", core.MetaTitle} {
		if v := p.Meta(key); v != "" {
			return v
		}
	}
	return core.SentinelTitle
}

func preview(content string, n int) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
