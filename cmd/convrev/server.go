package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"convrev/internal/api"
	"convrev/internal/catalog"
	"convrev/internal/config"
	"convrev/internal/session"
	"convrev/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the convrev server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running convrev server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the review workflow over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// openStore picks the rating backend from config.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendCSV:
		return store.NewCSVStore(cfg.Store.CSVPath, logger), nil
	case config.BackendSQLite:
		return store.OpenSQLite(cfg.Store.DataDir)
	case config.BackendSheets:
		return store.NewSheetsStore(ctx, store.SheetsConfig{
			SpreadsheetID:   cfg.Store.Sheets.SpreadsheetID,
			SheetName:       cfg.Store.Sheets.SheetName,
			CredentialsFile: cfg.Store.Sheets.CredentialsFile,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// loadWorkspace opens the catalog and the rating store in parallel.
func loadWorkspace(ctx context.Context, cfg config.Config, logger *zap.Logger) (*catalog.Catalog, store.Store, error) {
	var (
		cat *catalog.Catalog
		st  store.Store
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		st, err = openStore(gctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, err
	}
	return cat, st, nil
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "convrev.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "convrev version %s\n", version)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	token := cfg.Server.Token
	if token == "" {
		token = uuid.New().String()
		printWarning("no server.token configured, generated one for this run: %s", token)
	}

	// Refuse to double-start. The health endpoint is the source of truth, the
	// PID file only makes the message friendlier.
	pidPath := pidFilePath(cfg.Store.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("convrev is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("convrev is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printStep("loading catalog from %s", cfg.Catalog.Path)
	cat, st, err := loadWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()
	logger.Info("workspace ready",
		zap.Int("items", cat.Len()),
		zap.String("backend", cfg.Store.Backend))

	sessions := session.NewManager(ctx, cat, st, logger)

	handler := api.NewHandler(api.Deps{
		Catalog:  cat,
		Sessions: sessions,
		Store:    st,
		Token:    token,
		Logger:   logger,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "convrev listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Store.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("convrev is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop convrev (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to convrev (PID %d)", pid)
	return nil
}

// runMCP serves the review tools over stdio. Logging goes to stderr so it
// cannot corrupt the protocol stream.
func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, st, err := loadWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sess := session.New(ctx, cat, st, logger)

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Catalog: cat,
		Session: sess,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
