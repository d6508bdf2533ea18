package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"convrev/internal/session"
	"convrev/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review conversations in the terminal",
	Long: `Review conversations in an interactive terminal UI.

The catalog and rating store are opened directly; no server is needed.
Progress is per reviewer, so two people can review the same catalog into the
same store without stepping on each other.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reviewer, _ := cmd.Flags().GetString("reviewer")
		return runReview(reviewer)
	},
}

func init() {
	reviewCmd.Flags().String("reviewer", "", "reviewer name (prompted for when omitted)")
}

func runReview(reviewer string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI; structured logs go to a file.
	logger := fileLogger(cfg.Store.DataDir, cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, st, err := loadWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sess := session.New(ctx, cat, st, logger)
	if reviewer != "" {
		if _, err := sess.SetReviewer(reviewer); err != nil {
			return err
		}
	}

	model := tui.NewModel(sess)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running review UI: %w", err)
	}

	state := sess.State()
	if state.Reviewer != "" {
		printStatus("Reviewer", "%s", state.Reviewer)
		printStatus("Progress", "%d/%d (%d%%)", state.Reviewed, state.Total, state.Percent())
	}
	return nil
}

func fileLogger(dataDir, level string) *zap.Logger {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return zap.NewNop()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{filepath.Join(dataDir, "convrev.log")}
	cfg.ErrorOutputPaths = []string{filepath.Join(dataDir, "convrev.log")}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
