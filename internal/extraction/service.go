// Package extraction runs the insight pipeline: conversation turns are turned
// into a prompt, sent to the model, parsed, merged with the user's memory and
// persisted. Model and parse failures never surface to callers; they yield a
// nil result instead.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/parallax/internal/insights"
	"github.com/lewisedginton/parallax/internal/merge"
	"github.com/lewisedginton/parallax/internal/models"
	"github.com/lewisedginton/parallax/internal/parser"
	"github.com/lewisedginton/parallax/internal/persistence"
	"github.com/lewisedginton/parallax/internal/prompt"
	"github.com/lewisedginton/parallax/internal/realtime"
	"github.com/lewisedginton/parallax/pkg/logger"
	"github.com/lewisedginton/parallax/pkg/metrics"
)

// ErrInvalidRequest marks input the caller must fix.
var ErrInvalidRequest = errors.New("invalid request")

// ExtractRequest is one extraction call. ExistingMemory, when set, takes
// precedence over the stored record as the prior memory.
type ExtractRequest struct {
	Messages       []insights.ConversationTurn
	ExistingMemory *insights.MemoryRecord
	UserID         string
}

// MediateRequest asks for an NVC reading of Message in the context of Messages.
type MediateRequest struct {
	Messages []insights.ConversationTurn
	Message  string
	Sender   insights.Sender
}

// Config wires a Service. Model and Builder are required; a nil Store
// disables persistence and a nil Notifier drops change events.
type Config struct {
	Model     models.Model
	Builder   *prompt.Builder
	Store     persistence.Store
	Notifier  realtime.Notifier
	Metrics   *metrics.Metrics
	Logger    logger.Logger
	MaxTokens int64
}

// Service turns conversation turns into memory records and mediation
// analyses using the configured model.
type Service struct {
	model     models.Model
	builder   *prompt.Builder
	store     persistence.Store
	notifier  realtime.Notifier
	metrics   *metrics.Metrics
	log       logger.Logger
	maxTokens int64
	now       func() time.Time
}

// NewService checks that cfg carries a model and a prompt builder.
func NewService(cfg Config) (*Service, error) {
	if cfg.Model == nil {
		return nil, errors.New("extraction: model is required")
	}
	if cfg.Builder == nil {
		return nil, errors.New("extraction: prompt builder is required")
	}
	s := &Service{
		model:     cfg.Model,
		builder:   cfg.Builder,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		maxTokens: cfg.MaxTokens,
		now:       time.Now,
	}
	if s.notifier == nil {
		s.notifier = realtime.NopNotifier{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s, nil
}

// Extract returns the merged memory record, or nil when the conversation is
// too short or the model output could not be used. Conversations of fewer
// than two turns are skipped before any validation. Blank turns are dropped.
// The only error returned is ErrInvalidRequest, for an unknown sender.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*insights.MemoryRecord, error) {
	log := logger.GetLoggerFromContext(ctx, s.log)
	if req.UserID != "" {
		log = log.WithFields(logger.UserIDField(req.UserID))
	}

	if !insights.HasEnoughContext(req.Messages) {
		return s.skip(log, len(req.Messages)), nil
	}
	if err := insights.ValidateSenders(req.Messages); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Messages = insights.DropBlankTurns(req.Messages)
	if !insights.HasEnoughContext(req.Messages) {
		return s.skip(log, len(req.Messages)), nil
	}

	prior := s.priorMemory(ctx, log, req)

	p, err := s.builder.BuildExtractionPrompt(req.Messages, prior)
	if err != nil {
		log.Error("Failed to build extraction prompt", logger.ErrorField(err))
		s.metrics.ObserveExtraction(metrics.OutcomePromptFailed)
		return nil, nil
	}

	raw, err := s.complete(ctx, p)
	if err != nil {
		log.Warn("Extraction model call failed", logger.ErrorField(err))
		s.metrics.ObserveExtraction(metrics.OutcomeModelError)
		return nil, nil
	}

	result := parser.Parse[insights.ExtractedFields](raw)
	fields, ok := result.Value()
	if !ok {
		log.Warn("Discarding malformed extraction response",
			logger.StringField("reason", result.Reason()),
			logger.IntField("response_length", len(raw)))
		s.metrics.ObserveExtraction(metrics.OutcomeMalformed)
		return nil, nil
	}

	now := s.now().UTC()
	record := merge.Merge(fields, prior, now)
	signals, errs := insights.DecodeSignals(fields.Signals, now)
	for _, err := range errs {
		log.Debug("Dropping signal", logger.ErrorField(err))
	}

	if req.UserID != "" && s.store != nil {
		if s.persist(ctx, log, req.UserID, record, signals) {
			s.publish(ctx, log, realtime.NewEvent(realtime.EventMemoryUpdated, req.UserID, now))
		}
	}

	s.metrics.ObserveExtraction(metrics.OutcomeSuccess)
	log.Info("Extraction complete",
		logger.IntField("themes", len(record.Themes)),
		logger.IntField("action_items", len(record.ActionItems)),
		logger.IntField("signals", len(signals)))
	return &record, nil
}

func (s *Service) skip(log logger.Logger, turns int) *insights.MemoryRecord {
	log.Debug("Skipping extraction, not enough context", logger.IntField("turns", turns))
	s.metrics.ObserveExtraction(metrics.OutcomeSkipped)
	return nil
}

func (s *Service) priorMemory(ctx context.Context, log logger.Logger, req ExtractRequest) *insights.MemoryRecord {
	if req.ExistingMemory != nil {
		return req.ExistingMemory
	}
	if req.UserID == "" || s.store == nil {
		return nil
	}
	prior, err := s.store.GetMemory(ctx, req.UserID)
	if err != nil {
		log.Warn("Failed to read stored memory, continuing without it", logger.ErrorField(err))
		return nil
	}
	return prior
}

// persist reports whether the memory record was written. A failure is
// logged and counted; the caller still returns the merged record.
func (s *Service) persist(ctx context.Context, log logger.Logger, userID string, record insights.MemoryRecord, signals []insights.Signal) bool {
	if err := s.store.UpsertMemory(ctx, userID, record); err != nil {
		log.Error("Failed to persist memory", logger.ErrorField(err))
		s.metrics.IncPersistenceFailure()
		return false
	}
	if len(signals) == 0 {
		return true
	}
	if err := s.store.UpsertSignals(ctx, userID, signals); err != nil {
		log.Error("Failed to persist signals", logger.ErrorField(err))
		s.metrics.IncPersistenceFailure()
	}
	return true
}

func (s *Service) publish(ctx context.Context, log logger.Logger, event realtime.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish change notification",
			logger.StringField("event_type", event.Type),
			logger.ErrorField(err))
		s.metrics.IncNotificationFailure()
	}
}

func (s *Service) complete(ctx context.Context, p prompt.Prompt) (string, error) {
	start := time.Now()
	raw, err := s.model.Complete(ctx, models.Request{
		System:    p.System,
		Messages:  []models.Message{{Role: models.RoleUser, Content: p.User}},
		MaxTokens: s.maxTokens,
	})
	s.metrics.ObserveModelCall(s.model.Provider(), time.Since(start))
	return raw, err
}

// Mediate returns the NVC analysis of req.Message, or nil when the model
// output could not be used.
func (s *Service) Mediate(ctx context.Context, req MediateRequest) (*insights.NVCAnalysis, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidRequest)
	}
	if req.Sender == "" {
		req.Sender = insights.SenderPersonA
	}
	if !req.Sender.Valid() || req.Sender == insights.SenderMediator {
		return nil, fmt.Errorf("%w: sender %q cannot be mediated", ErrInvalidRequest, req.Sender)
	}
	if err := insights.ValidateSenders(req.Messages); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Messages = insights.DropBlankTurns(req.Messages)
	log := logger.GetLoggerFromContext(ctx, s.log)

	p, err := s.builder.BuildMediationPrompt(req.Messages, req.Sender, message)
	if err != nil {
		log.Error("Failed to build mediation prompt", logger.ErrorField(err))
		return nil, nil
	}

	raw, err := s.complete(ctx, p)
	if err != nil {
		log.Warn("Mediation model call failed", logger.ErrorField(err))
		return nil, nil
	}

	result := parser.Parse[insights.NVCAnalysis](raw)
	analysis, ok := result.Value()
	if !ok {
		log.Warn("Discarding malformed mediation response", logger.StringField("reason", result.Reason()))
		return nil, nil
	}
	analysis = analysis.Normalize()
	return &analysis, nil
}

// Memory returns the stored record for userID, or persistence.ErrNotFound.
func (s *Service) Memory(ctx context.Context, userID string) (*insights.MemoryRecord, error) {
	if s.store == nil {
		return nil, persistence.ErrNotFound
	}
	record, err := s.store.GetMemory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, persistence.ErrNotFound
	}
	return record, nil
}

// Signals lists the stored behavioural signals for userID.
func (s *Service) Signals(ctx context.Context, userID string) ([]insights.Signal, error) {
	if s.store == nil {
		return []insights.Signal{}, nil
	}
	return s.store.ListSignals(ctx, userID)
}

// SetActionItemStatus applies an explicit status transition and publishes
// the change.
func (s *Service) SetActionItemStatus(ctx context.Context, userID, itemID string, status insights.ActionItemStatus) (*insights.MemoryRecord, error) {
	if s.store == nil {
		return nil, persistence.ErrNotFound
	}
	record, err := s.store.UpdateActionItemStatus(ctx, userID, itemID, status)
	if err != nil {
		return nil, err
	}
	log := logger.GetLoggerFromContext(ctx, s.log).WithFields(logger.UserIDField(userID))
	event := realtime.NewEvent(realtime.EventActionItemUpdated, userID, s.now())
	event.ItemID = itemID
	s.publish(ctx, log, event)
	return record, nil
}
