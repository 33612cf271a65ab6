package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/ema-scheduler/internal/cache"
	"github.com/LeventeLantos/ema-scheduler/internal/config"
	"github.com/LeventeLantos/ema-scheduler/internal/conflict"
	"github.com/LeventeLantos/ema-scheduler/internal/directory"
	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/prompt"
	"github.com/LeventeLantos/ema-scheduler/internal/service"
)

const sendTimeLayout = "Mon Jan 02 2006 03:04 PM MST"

type scheduleFlags struct {
	participant int
	hour        int
	minute      int
	dryRun      bool
}

func newScheduleCmd() *cobra.Command {
	var f scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a messaging campaign for one participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAll(config.Options{RequireTemplate: true})
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log.Level)
			slog.SetDefault(log)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			term := prompt.NewTerminal(cmd.InOrStdin(), out)

			plan, err := collectPlan(ctx, term, cmd, f, cfg.Campaign)
			if err != nil {
				return err
			}

			sendLog, closeLog := openSendLog(ctx, cfg.Redis, log)
			defer closeLog()

			tc := newClient(cfg.TextMagic)
			s, err := service.NewCampaignScheduler(service.Deps{
				Resolver:  directory.NewResolver(tc, cfg.TextMagic.Username, log),
				Conflicts: conflict.NewChecker(tc, conflict.WithFullScan(cfg.Conflict.FullScan), conflict.WithLogger(log)),
				Creator:   tc,
				Confirmer: term,
				SendLog:   sendLog,
				Logger:    log,
			}, service.Config{
				TemplateID: cfg.TextMagic.TemplateID,
				MinSpacing: cfg.Campaign.MinSpacing,
				Location:   cfg.Campaign.Location,
				DryRun:     f.dryRun,
			})
			if err != nil {
				return err
			}

			return runSchedule(ctx, out, s, plan)
		},
	}

	cmd.Flags().IntVar(&f.participant, "participant", 0, "participant number (100-999)")
	cmd.Flags().IntVar(&f.hour, "hour", 0, "hour messaging starts, 24h clock (0-23)")
	cmd.Flags().IntVar(&f.minute, "minute", 0, "minute messaging starts (0-59)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print send times without scheduling anything")
	return cmd
}

// collectPlan takes the participant and start time from flags, asking for
// any that were not given.
func collectPlan(ctx context.Context, term *prompt.Terminal, cmd *cobra.Command, f scheduleFlags, c config.CampaignConfig) (model.CampaignPlan, error) {
	ask := func(name string, v *int, question string, lo, hi int) error {
		if cmd.Flags().Changed(name) {
			return nil
		}
		got, err := term.AskInt(ctx, question, lo, hi)
		if err != nil {
			return err
		}
		*v = got
		return nil
	}

	if err := ask("participant", &f.participant, "Please enter the participant number: ", service.MinParticipantID, service.MaxParticipantID); err != nil {
		return model.CampaignPlan{}, err
	}
	if err := ask("hour", &f.hour, "Please enter the hour messaging starts (24h clock, 0-23): ", 0, 23); err != nil {
		return model.CampaignPlan{}, err
	}
	if err := ask("minute", &f.minute, "Please enter the minute messaging starts (0-59): ", 0, 59); err != nil {
		return model.CampaignPlan{}, err
	}

	return model.CampaignPlan{
		ParticipantID: f.participant,
		Window: model.MessagingWindow{
			StartHour:   f.hour,
			StartMinute: f.minute,
			Duration:    c.Window,
			SubWindows:  c.MessagesPerDay,
		},
		StartDelayDays: c.StartDelayDays,
		DurationDays:   c.Days,
	}, nil
}

func openSendLog(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (cache.SendLog, func()) {
	if !cfg.Enabled {
		return cache.Nop{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, send log disabled", "addr", cfg.Address, "error", err)
		_ = rdb.Close()
		return cache.Nop{}, func() {}
	}
	return cache.NewRedisCache(rdb, cfg.TTL), func() { _ = rdb.Close() }
}

func runSchedule(ctx context.Context, w io.Writer, s *service.CampaignScheduler, plan model.CampaignPlan) error {
	s.WithHooks(func(_ context.Context, sendAt time.Time, _ model.ScheduledMessage) {
		fmt.Fprintf(w, "Message scheduled: %s\n", sendAt.Format(sendTimeLayout))
	})

	res, err := s.Schedule(ctx, plan)
	if err != nil {
		if res.Sent > 0 {
			fmt.Fprintf(w, "%d messages were scheduled before the failure and remain in TextMagic.\n", res.Sent)
		}
		return err
	}

	switch res.Outcome {
	case service.DryRun:
		for _, t := range res.SendTimes {
			fmt.Fprintf(w, "Would schedule: %s\n", t.Format(sendTimeLayout))
		}
		fmt.Fprintf(w, "Dry run: %d messages computed for participant %d, nothing scheduled.\n", len(res.SendTimes), plan.ParticipantID)
	case service.Scheduled:
		fmt.Fprintf(w, "%d messages scheduled for participant %d.\n", res.Sent, plan.ParticipantID)
	}
	return nil
}
