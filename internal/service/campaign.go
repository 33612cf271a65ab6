package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/LeventeLantos/ema-scheduler/internal/cache"
	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/timing"
)

const (
	MinParticipantID = 100
	MaxParticipantID = 999
)

// RecipientResolver finds the participant's contact first and fetches the
// phone number only once the run is past the conflict gate.
type RecipientResolver interface {
	FindContact(ctx context.Context, participantID int) (int64, error)
	Phone(ctx context.Context, contactID int64) (string, error)
}

type ConflictChecker interface {
	HasPendingSend(ctx context.Context, contactID int64) (bool, error)
}

type MessageCreator interface {
	CreateScheduledMessage(ctx context.Context, templateID, contactID int64, sendAt time.Time) (model.ScheduledMessage, error)
}

// Confirmer asks the operator to approve a run. Overriding a conflict is a
// separate decision from approving the plan.
type Confirmer interface {
	ConfirmConflict(ctx context.Context, participantID int, r model.Recipient) (bool, error)
	ConfirmPlan(ctx context.Context, summary model.PlanSummary) (bool, error)
}

type Outcome string

const (
	Scheduled        Outcome = "scheduled"
	Cancelled        Outcome = "cancelled"
	ConflictDeclined Outcome = "conflict_declined"
	DryRun           Outcome = "dry_run"
)

type Result struct {
	Outcome   Outcome
	Recipient model.Recipient
	SendTimes []time.Time
	Sent      int
}

type Deps struct {
	Resolver  RecipientResolver
	Conflicts ConflictChecker
	Creator   MessageCreator
	Confirmer Confirmer
	SendLog   cache.SendLog
	Logger    *slog.Logger
}

type Config struct {
	TemplateID int64
	MinSpacing time.Duration
	Location   *time.Location
	Now        func() time.Time
	Rand       *rand.Rand
	DryRun     bool
}

type CampaignScheduler struct {
	deps  Deps
	cfg   Config
	dates *timing.DateGenerator
	log   *slog.Logger

	onScheduled func(ctx context.Context, sendAt time.Time, msg model.ScheduledMessage)
}

func NewCampaignScheduler(deps Deps, cfg Config) (*CampaignScheduler, error) {
	if deps.Resolver == nil || deps.Conflicts == nil || deps.Creator == nil || deps.Confirmer == nil {
		return nil, errors.New("resolver, conflict checker, creator and confirmer are required")
	}
	if cfg.Location == nil {
		return nil, errors.New("location must not be nil")
	}
	if deps.SendLog == nil {
		deps.SendLog = cache.Nop{}
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return &CampaignScheduler{
		deps:  deps,
		cfg:   cfg,
		dates: timing.NewDateGenerator(cfg.Location, cfg.Now),
		log:   log,
	}, nil
}

// WithHooks registers a callback run after each send is accepted.
func (s *CampaignScheduler) WithHooks(onScheduled func(ctx context.Context, sendAt time.Time, msg model.ScheduledMessage)) *CampaignScheduler {
	s.onScheduled = onScheduled
	return s
}

// Validate checks the plan and builds its partitioner. It makes no external
// calls.
func (s *CampaignScheduler) Validate(plan model.CampaignPlan) (*timing.Partitioner, error) {
	if plan.ParticipantID < MinParticipantID || plan.ParticipantID > MaxParticipantID {
		return nil, &ValidationError{Field: "participant number", Reason: fmt.Sprintf("must be a whole number from %d-%d, got %d", MinParticipantID, MaxParticipantID, plan.ParticipantID)}
	}
	w := plan.Window
	if w.StartHour < 0 || w.StartHour > 23 {
		return nil, &ValidationError{Field: "start hour", Reason: fmt.Sprintf("must be from 0-23, got %d", w.StartHour)}
	}
	if w.StartMinute < 0 || w.StartMinute > 59 {
		return nil, &ValidationError{Field: "start minute", Reason: fmt.Sprintf("must be from 0-59, got %d", w.StartMinute)}
	}
	if w.Duration <= 0 {
		return nil, &ValidationError{Field: "window duration", Reason: "must be > 0"}
	}
	if w.Duration > timing.MaxWindow {
		return nil, &ValidationError{Field: "window duration", Reason: fmt.Sprintf("must be at most %s, got %s", timing.MaxWindow, w.Duration)}
	}
	if w.SubWindows <= 0 {
		return nil, &ValidationError{Field: "messages per day", Reason: "must be > 0"}
	}
	if plan.StartDelayDays < 0 {
		return nil, &ValidationError{Field: "start delay", Reason: "must be >= 0"}
	}
	if plan.DurationDays <= 0 {
		return nil, &ValidationError{Field: "campaign duration", Reason: "must be > 0"}
	}

	return timing.NewPartitioner(w.SubWindows, w.Duration, s.cfg.MinSpacing, s.cfg.Rand)
}

// Schedule runs one campaign for one participant. Declined confirmations are
// reported through Result.Outcome with a nil error. If a send fails part way,
// the sends already accepted stay scheduled and Result.Sent counts them.
func (s *CampaignScheduler) Schedule(ctx context.Context, plan model.CampaignPlan) (Result, error) {
	started := time.Now()

	part, err := s.Validate(plan)
	if err != nil {
		return Result{}, err
	}

	contactID, err := s.deps.Resolver.FindContact(ctx, plan.ParticipantID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve participant %d: %w", plan.ParticipantID, err)
	}
	recipient := model.Recipient{ContactID: contactID}
	res := Result{Recipient: recipient}

	pending, err := s.deps.Conflicts.HasPendingSend(ctx, recipient.ContactID)
	if err != nil {
		return res, fmt.Errorf("check pending sends: %w", err)
	}
	if pending {
		s.log.Warn("messages are already scheduled for this participant",
			"participant", plan.ParticipantID, "contact_id", recipient.ContactID)

		ok, err := s.deps.Confirmer.ConfirmConflict(ctx, plan.ParticipantID, recipient)
		if err != nil {
			return res, fmt.Errorf("confirm conflict override: %w", err)
		}
		if !ok {
			s.log.Info("message scheduling cancelled", "reason", "pending sends")
			res.Outcome = ConflictDeclined
			return res, nil
		}
		s.log.Warn("conflict overridden by operator", "participant", plan.ParticipantID)
	}

	recipient.Phone, err = s.deps.Resolver.Phone(ctx, contactID)
	if err != nil {
		return res, fmt.Errorf("look up phone for participant %d: %w", plan.ParticipantID, err)
	}
	res.Recipient = recipient

	dates, err := s.dates.Dates(plan.StartDelayDays, plan.DurationDays)
	if err != nil {
		return res, err
	}

	s.log.Info("plan prepared", "participant", plan.ParticipantID, "elapsed", time.Since(started).String())

	ok, err := s.deps.Confirmer.ConfirmPlan(ctx, model.PlanSummary{
		ParticipantID: plan.ParticipantID,
		Recipient:     recipient,
		MessageCount:  plan.MessageCount(),
		StartHour:     plan.Window.StartHour,
		StartMinute:   plan.Window.StartMinute,
		Dates:         dates,
	})
	if err != nil {
		return res, fmt.Errorf("confirm plan: %w", err)
	}
	if !ok {
		s.log.Info("message scheduling cancelled", "reason", "plan declined")
		res.Outcome = Cancelled
		return res, nil
	}

	if s.cfg.DryRun {
		for _, date := range dates {
			for _, off := range part.Offsets() {
				res.SendTimes = append(res.SendTimes, timing.SendTime(date, plan.Window.StartHour, plan.Window.StartMinute, off))
			}
		}
		s.checkCount(plan, res.SendTimes)
		res.Outcome = DryRun
		return res, nil
	}

	for _, date := range dates {
		for _, off := range part.Offsets() {
			sendAt := timing.SendTime(date, plan.Window.StartHour, plan.Window.StartMinute, off)
			res.SendTimes = append(res.SendTimes, sendAt)

			msg, err := s.deps.Creator.CreateScheduledMessage(ctx, s.cfg.TemplateID, recipient.ContactID, sendAt)
			if err != nil {
				return res, fmt.Errorf("schedule message %d of %d at %s (%d already scheduled): %w",
					len(res.SendTimes), plan.MessageCount(), sendAt.Format(time.RFC3339), res.Sent, err)
			}
			res.Sent++

			if err := s.deps.SendLog.StoreScheduled(ctx, recipient.ContactID, msg.ID, sendAt); err != nil {
				s.log.Warn("send log write failed", "message_id", msg.ID, "error", err)
			}
			if s.onScheduled != nil {
				s.onScheduled(ctx, sendAt, msg)
			}
		}
	}

	s.checkCount(plan, res.SendTimes)
	res.Outcome = Scheduled

	s.log.Info("campaign scheduled", "participant", plan.ParticipantID, "messages", res.Sent,
		"duration_ms", time.Since(started).Milliseconds())
	return res, nil
}

func (s *CampaignScheduler) checkCount(plan model.CampaignPlan, sendTimes []time.Time) {
	if want := plan.MessageCount(); len(sendTimes) != want {
		panic(fmt.Sprintf("generated %d send times, want %d", len(sendTimes), want))
	}
}
