// Command cipchat runs the tenant chat orchestration service.
//
// Usage:
//
//	cipchat serve
//	cipchat version
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cipchat/orchestrator/pkg/chat"
	"github.com/cipchat/orchestrator/pkg/config"
	"github.com/cipchat/orchestrator/pkg/exchangelog"
	"github.com/cipchat/orchestrator/pkg/llms"
	"github.com/cipchat/orchestrator/pkg/logger"
	"github.com/cipchat/orchestrator/pkg/mcp"
	"github.com/cipchat/orchestrator/pkg/server"
	"github.com/cipchat/orchestrator/pkg/store"
	"github.com/cipchat/orchestrator/pkg/tools"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the chat orchestration server."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("cipchat version %s\n", version)
	return nil
}

type ServeCmd struct {
	Listen string `help:"Listen address (overrides LISTEN_ADDR)."`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.Listen != "" {
		cfg.ListenAddr = c.Listen
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serverStore store.ServerStore
	if cfg.DatabaseURL != "" {
		pg, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pg.Close()
		serverStore = pg
	} else {
		slog.Warn("DATABASE_URL not set, dynamic tool servers disabled")
		serverStore = store.NewMemoryStore()
	}

	providers := llms.NewProviderRegistry()
	if err := providers.Register("default", llms.NewOpenAIProvider(&cfg.LLM)); err != nil {
		return err
	}
	llm, err := providers.GetProvider("default")
	if err != nil {
		return err
	}

	protocolClient := mcp.NewClient()
	builtins := []tools.Provider{
		tools.NewGalleryProvider(cfg.GalleryServiceURL, protocolClient),
		tools.NewRetrievalProvider(cfg.RAGServiceURL, protocolClient),
	}

	orchestrator := chat.NewOrchestrator(
		llm,
		tools.NewCatalog(builtins, tools.NewDynamicRegistry(serverStore, protocolClient)),
		tools.NewRouter(builtins, serverStore, protocolClient),
		exchangelog.NewFileSink(cfg.ExchangeLogDir),
		chat.Config{
			PublicBaseURL:   cfg.PublicBaseURL,
			RoundLimit:      cfg.ToolRoundLimit,
			ContextMessages: cfg.ContextMessages,
		},
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(orchestrator, cfg.AdminContextMessages).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", cfg.ListenAddr, "model", llm.ModelName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("cipchat"),
		kong.Description("Tenant chat bot orchestration service."),
		kong.UsageOnError(),
	)
	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
