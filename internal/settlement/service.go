// Package settlement is the application service around the payout engine.
// It applies deployment limits, stores named scenarios and announces every
// settlement on the event bus.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/event"
	"github.com/osse101/DCM_Go/internal/logger"
	"github.com/osse101/DCM_Go/internal/payout"
	"github.com/osse101/DCM_Go/internal/repository"
)

// Service defines the interface for settlement operations
type Service interface {
	Compute(ctx context.Context, req *domain.ComputeRequest) (*domain.Settlement, error)
	ComputeBatch(ctx context.Context, reqs []domain.ComputeRequest) []domain.BatchItemResult
	SaveScenario(ctx context.Context, req *domain.ScenarioRequest) (*domain.ScenarioView, error)
	GetScenario(ctx context.Context, id string) (*domain.ScenarioView, error)
	ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
	Ready(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Config holds the limits the service enforces before the engine runs
type Config struct {
	DefaultLeverageBound float64
	MaxLeverageBound     float64 // 0 disables the check
	MaxParticipants      int     // 0 disables the check
	BatchConcurrency     int
	CacheSize            int
	CacheTTL             time.Duration
}

type service struct {
	repo     repository.Scenario
	eventBus event.Bus
	cfg      Config
	cache    *viewCache
	wg       sync.WaitGroup // Tracks async publishes for graceful shutdown
}

// NewService creates a new settlement service. eventBus may be nil.
func NewService(repo repository.Scenario, eventBus event.Bus, cfg Config) Service {
	if cfg.DefaultLeverageBound == 0 {
		cfg.DefaultLeverageBound = payout.DefaultLeverageBound
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 1
	}
	return &service{
		repo:     repo,
		eventBus: eventBus,
		cfg:      cfg,
		cache:    newViewCache(cfg.CacheSize, cfg.CacheTTL),
	}
}

type sourceKey struct{}

// WithSource tags ctx with the surface that asked for a settlement
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return SourceDirect
}

// Compute settles one market
func (s *service) Compute(ctx context.Context, req *domain.ComputeRequest) (*domain.Settlement, error) {
	return s.compute(ctx, req, sourceFrom(ctx))
}

func (s *service) compute(ctx context.Context, req *domain.ComputeRequest, source string) (*domain.Settlement, error) {
	log := logger.FromContext(ctx)
	if req == nil {
		return nil, fmt.Errorf("%w: missing request", domain.ErrInvalidInput)
	}
	log.Debug(LogMsgComputeCalled, "participants", len(req.Participants), "winning_side", req.WinningSide, "source", source)

	result, err := s.settle(req)
	if err != nil {
		s.reject(ctx, err, len(req.Participants), source)
		return nil, err
	}

	log.Info(LogMsgSettlementComputed,
		"participants", len(result.Results),
		"winning_side", result.WinningSide,
		"leverage_bound", result.LeverageBound,
		"losing_pool", result.Pools.LosingPool,
		"source", source)
	s.publish(ctx, event.NewPayoutComputedEvent("", result, source))
	return result, nil
}

// leverageFor resolves the optional leverage bound of a request
func (s *service) leverageFor(req *domain.ComputeRequest) float64 {
	if req.LeverageBound == nil {
		return s.cfg.DefaultLeverageBound
	}
	return *req.LeverageBound
}

// settle applies deployment limits and runs the engine. Limit violations are
// merged with the engine's own so callers see every problem at once.
func (s *service) settle(req *domain.ComputeRequest) (*domain.Settlement, error) {
	leverage := s.leverageFor(req)

	if s.cfg.MaxParticipants > 0 && len(req.Participants) > s.cfg.MaxParticipants {
		// too large to be worth validating row by row
		return nil, &payout.ValidationError{Violations: []payout.Violation{{
			Index: payout.NoParticipant,
			Field: payout.FieldParticipants,
			Value: float64(len(req.Participants)),
			Err:   domain.ErrTooManyParticipants,
		}}}
	}

	var limits []payout.Violation
	if s.cfg.MaxLeverageBound > 0 && leverage > s.cfg.MaxLeverageBound {
		limits = append(limits, payout.Violation{
			Index: payout.NoParticipant,
			Field: payout.FieldLeverageBound,
			Value: leverage,
			Err:   domain.ErrLeverageAboveMaximum,
		})
	}

	result, err := payout.Compute(req.Participants, req.WinningSide, leverage)
	if len(limits) == 0 {
		return result, err
	}
	if verr, ok := payout.AsValidationError(err); ok {
		limits = append(limits, verr.Violations...)
	}
	return nil, &payout.ValidationError{Violations: limits}
}

func (s *service) reject(ctx context.Context, err error, participants int, source string) {
	reason := rejectionReason(err)
	logger.FromContext(ctx).Info(LogMsgSettlementRejected, "reason", reason, "error", err, "source", source)
	s.publish(ctx, event.NewPayoutRejectedEvent(reason, participants, source))
}

// rejectionReason names the first recognised cause of err
func rejectionReason(err error) string {
	reasons := []struct {
		target error
		reason string
	}{
		{domain.ErrTooManyParticipants, ReasonTooManyParticipants},
		{domain.ErrLeverageAboveMaximum, ReasonLeverageAboveMaximum},
		{domain.ErrInvalidLeverageBound, ReasonInvalidLeverageBound},
		{domain.ErrInvalidSide, ReasonInvalidSide},
		{domain.ErrInvalidStake, ReasonInvalidStake},
		{domain.ErrInvalidConfidence, ReasonInvalidConfidence},
		{domain.ErrAmountOverflow, ReasonAmountOverflow},
	}
	if verr, ok := payout.AsValidationError(err); ok && len(verr.Violations) > 0 {
		err = verr.Violations[0].Err
	}
	for _, r := range reasons {
		if errors.Is(err, r.target) {
			return r.reason
		}
	}
	return ReasonOther
}

// ComputeBatch settles independent markets concurrently. Each item carries
// its own settlement or error and results keep request order.
func (s *service) ComputeBatch(ctx context.Context, reqs []domain.ComputeRequest) []domain.BatchItemResult {
	results := make([]domain.BatchItemResult, len(reqs))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.BatchConcurrency)

	for i := range reqs {
		g.Go(func() error {
			results[i].Index = i
			if err := ctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}
			settled, err := s.compute(ctx, &reqs[i], SourceBatch)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Settlement = settled
			return nil
		})
	}
	_ = g.Wait() // items never fail the group

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	logger.FromContext(ctx).Info(LogMsgBatchCompleted, "markets", len(reqs), "failed", failed)
	return results
}

// SaveScenario settles the request and stores its input. Invalid markets are
// never stored.
func (s *service) SaveScenario(ctx context.Context, req *domain.ScenarioRequest) (*domain.ScenarioView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing request", domain.ErrInvalidInput)
	}

	settled, err := s.settle(&req.ComputeRequest)
	if err != nil {
		s.reject(ctx, err, len(req.Participants), SourceScenario)
		return nil, err
	}

	scenario := &domain.Scenario{
		Name:          req.Name,
		Participants:  slices.Clone(req.Participants),
		WinningSide:   req.WinningSide,
		LeverageBound: settled.LeverageBound,
		Policy:        settled.Policy,
	}
	if scenario.Participants == nil {
		scenario.Participants = []domain.Participant{}
	}
	if err := s.repo.CreateScenario(ctx, scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToStoreScenario, err)
	}

	view := &domain.ScenarioView{Scenario: *scenario, Settlement: settled}
	s.cache.Set(view)

	logger.FromContext(ctx).Info(LogMsgScenarioSaved, "scenario_id", scenario.ID, "participants", len(scenario.Participants))
	s.publish(ctx, event.NewScenarioSavedEvent(scenario))
	s.publish(ctx, event.NewPayoutComputedEvent(scenario.ID, settled, SourceScenario))
	return view, nil
}

// GetScenario returns a stored scenario with its settlement, recomputed from
// the stored input on a cache miss
func (s *service) GetScenario(ctx context.Context, id string) (*domain.ScenarioView, error) {
	if view, ok := s.cache.Get(id); ok {
		logger.FromContext(ctx).Debug(LogMsgSettlementCacheHit, "scenario_id", id)
		return view, nil
	}

	scenario, err := s.repo.GetScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToLoadScenario, err)
	}

	settled, err := payout.Compute(scenario.Participants, scenario.WinningSide, scenario.LeverageBound)
	if err != nil {
		logger.FromContext(ctx).Error(LogMsgStoredScenarioBroken, "scenario_id", id, "error", err)
		return nil, fmt.Errorf("%s %s: %w: %w", ErrContextFailedToSettleScenario, id, domain.ErrStoredScenarioInvalid, err)
	}

	view := &domain.ScenarioView{Scenario: *scenario, Settlement: settled}
	s.cache.Set(view)
	return view, nil
}

// ListScenarios returns stored scenarios newest first, without settlements
func (s *service) ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	scenarios, err := s.repo.ListScenarios(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToListScenarios, err)
	}
	if scenarios == nil {
		scenarios = []domain.Scenario{}
	}
	return scenarios, nil
}

// DeleteScenario removes a stored scenario and its cached settlement
func (s *service) DeleteScenario(ctx context.Context, id string) error {
	if err := s.repo.DeleteScenario(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", ErrContextFailedToDeleteScenario, err)
	}
	s.cache.Invalidate(id)

	logger.FromContext(ctx).Info(LogMsgScenarioDeleted, "scenario_id", id)
	s.publish(ctx, event.NewScenarioDeletedEvent(id))
	return nil
}

// Ready reports whether scenario storage is reachable
func (s *service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish hands the event to the bus off the request path
func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.eventBus == nil {
		return
	}
	if evt.Metadata == nil {
		evt.Metadata = event.Metadata{}
	}
	if id := logger.GetRequestID(ctx); id != "" {
		evt.Metadata[event.MetadataKeyRequestID] = id
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pubCtx := context.WithoutCancel(ctx)
		if err := s.eventBus.Publish(pubCtx, evt); err != nil {
			logger.FromContext(pubCtx).Warn(LogMsgPublishFailed, "event_type", evt.Type, "error", err)
		}
	}()
}

// Shutdown waits for in-flight event publishes
func (s *service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
