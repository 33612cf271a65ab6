package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LeventeLantos/ema-scheduler/internal/config"
	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/pager"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List message templates and their IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAll(config.Options{})
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log.Level)
			log.Debug("listing templates", "base_url", cfg.TextMagic.BaseURL)

			return printTemplates(cmd.Context(), cmd.OutOrStdout(), newClient(cfg.TextMagic).ListTemplates)
		},
	}
}

func printTemplates(ctx context.Context, w io.Writer, fetch pager.FetchFunc[model.Template]) error {
	for items, err := range pager.Pages(ctx, fetch) {
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		for _, t := range items {
			fmt.Fprintf(w, "Name: %s ID: %d\n", t.Name, t.ID)
		}
	}
	return nil
}
