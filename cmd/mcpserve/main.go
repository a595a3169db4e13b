// Command mcpserve is the host program: it loads configuration, builds a
// Session Store of the configured backend, registers the example tool,
// and runs either the HTTP or STDIO transport. Grounded on
// paularlott-mcp's examples/server/main.go wiring order (config -> store
// -> registry -> engine -> lifecycle -> transport).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mcp "github.com/inference-tools/mcpserve"
	"github.com/inference-tools/mcpserve/internal/config"
	"github.com/inference-tools/mcpserve/internal/logging"
	"github.com/inference-tools/mcpserve/internal/store"
	transporthttp "github.com/inference-tools/mcpserve/transport/http"
	"github.com/inference-tools/mcpserve/transport/stdio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.DebugPath)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	sessionStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("building session store: %w", err)
	}

	registry := mcp.NewRegistry()
	registerTools(registry)

	engine := mcp.NewEngine(registry, cfg.Mcp.ServerName, cfg.Mcp.ServerVer)
	lifecycle := mcp.NewLifecycle(sessionStore, engine, func() int64 { return time.Now().Unix() })

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch config.Transport(cfg.Mcp.Transport) {
	case config.TransportHTTP:
		return runHTTP(ctx, cfg, lifecycle, engine, registry, logger)
	case config.TransportSTDIO:
		return runSTDIO(ctx, cfg, lifecycle, engine, logger)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Mcp.Transport)
	}
}

func buildStore(cfg *config.Config) (mcp.SessionStore, error) {
	switch cfg.Session.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.Session.TempDir)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Session.RedisAddr,
			DialTimeout: store.DialTimeout,
		})
		return store.NewRedisStore(client, "mcpserve:session:"), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// registerTools registers the example tool used by the conformance
// scenario: add_numbers(a, b) -> sum, returned both as text and as
// structuredContent.
func registerTools(registry *mcp.Registry) {
	tool := mcp.NewTool("add_numbers", "Add two numbers and return their sum.",
		mcp.Number("a", "First addend", mcp.Required()),
		mcp.Number("b", "Second addend", mcp.Required()),
		mcp.Output(mcp.Number("sum", "Sum of a and b")),
	)

	registry.RegisterTool(tool, func(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
		a, err := req.Float("a")
		if err != nil {
			return nil, mcp.NewToolError("invalid parameter a: %v", err)
		}
		b, err := req.Float("b")
		if err != nil {
			return nil, mcp.NewToolError("invalid parameter b: %v", err)
		}
		sum := a + b
		return mcp.NewToolResponseStructured(formatSum(sum), map[string]interface{}{"sum": sum}), nil
	}, 0)
}

func formatSum(sum float64) string {
	if sum == float64(int64(sum)) {
		return fmt.Sprintf("%d", int64(sum))
	}
	return fmt.Sprintf("%g", sum)
}

func runHTTP(ctx context.Context, cfg *config.Config, lifecycle *mcp.Lifecycle, engine *mcp.Engine, registry *mcp.Registry, logger *zap.Logger) error {
	handler := transporthttp.New(&transporthttp.Handler{
		Lifecycle:    lifecycle,
		Engine:       engine,
		Registry:     registry,
		EndpointPath: cfg.Mcp.EndpointPath,
		MaxUptime:    time.Duration(cfg.Session.MaxUptimeSeconds) * time.Second,
		InitTimeout:  time.Duration(cfg.Session.InitTimeoutSecs) * time.Second,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("http transport listening", zap.String("addr", cfg.HTTP.Addr), zap.String("endpoint", cfg.Mcp.EndpointPath))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func runSTDIO(ctx context.Context, cfg *config.Config, lifecycle *mcp.Lifecycle, engine *mcp.Engine, logger *zap.Logger) error {
	srv := &stdio.Server{
		Lifecycle:   lifecycle,
		Engine:      engine,
		MaxUptime:   time.Duration(cfg.Session.MaxUptimeSeconds) * time.Second,
		InitTimeout: time.Duration(cfg.Session.InitTimeoutSecs) * time.Second,
		Logger:      logger,
		In:          os.Stdin,
		Out:         os.Stdout,
	}
	logger.Info("stdio transport starting")
	return srv.Run(ctx)
}
