package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/ema-scheduler/internal/client"
	"github.com/LeventeLantos/ema-scheduler/internal/config"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "emasched",
		Short:         "Schedule randomized daily EMA prompts through TextMagic",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	root.AddCommand(newScheduleCmd(), newTemplatesCmd())
	return root
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClient(cfg config.TextMagicConfig) *client.TextMagicClient {
	return client.NewTextMagicClient(client.Options{
		BaseURL:    cfg.BaseURL,
		Username:   cfg.Username,
		APIKey:     cfg.APIKey,
		RatePerSec: cfg.RatePerSec,
		PageSize:   cfg.PageSize,
	})
}
