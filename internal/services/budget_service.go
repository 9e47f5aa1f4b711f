// Package services holds BudgetService, the single owner of the application
// state. Every user operation goes through it.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"masarify/internal/advisor"
	"masarify/internal/amqp"
	"masarify/internal/core"
	"masarify/internal/ledger"
	"masarify/internal/log"
	"masarify/internal/notify"
	"masarify/internal/persistence"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidPin          = errors.New("invalid pin")
	ErrLocked              = errors.New("application is locked")
	ErrNotStarted          = errors.New("service not started")
)

// ChangePublisher announces saved ledger versions to other processes.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Options wires the collaborators. Gateway is required; everything else
// has a working default.
type Options struct {
	Gateway      *persistence.Gateway
	Aggregator   *ledger.Aggregator
	Notifier     notify.Notifier
	Publisher    ChangePublisher
	Advisor      *advisor.Advisor
	Conversation *advisor.Conversation
	Location     *time.Location
	Now          func() time.Time
	Logger       *log.Logger
	RecentLimit  int
	SearchLimit  int
}

// BudgetService replaces its state root wholesale on every mutation and
// persists each new root before releasing the lock, so saves land in order.
type BudgetService struct {
	mu      sync.RWMutex
	state   core.AppState
	version uint64
	epoch   int64
	started bool

	gateway      *persistence.Gateway
	aggregator   *ledger.Aggregator
	notifier     notify.Notifier
	publisher    ChangePublisher
	advisor      *advisor.Advisor
	conversation *advisor.Conversation
	loc          *time.Location
	now          func() time.Time
	logger       *log.Logger
	events       *log.StructuredLogger
	recentLimit  int
	searchLimit  int
}

func NewBudgetService(opts Options) *BudgetService {
	s := &BudgetService{
		state:        core.DefaultState(),
		gateway:      opts.Gateway,
		aggregator:   opts.Aggregator,
		notifier:     opts.Notifier,
		publisher:    opts.Publisher,
		advisor:      opts.Advisor,
		conversation: opts.Conversation,
		loc:          opts.Location,
		now:          opts.Now,
		logger:       opts.Logger,
		recentLimit:  opts.RecentLimit,
		searchLimit:  opts.SearchLimit,
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	if s.aggregator == nil {
		s.aggregator = ledger.NewAggregator(32, 10*time.Minute)
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.advisor == nil {
		s.advisor = advisor.New(nil, advisor.DefaultMaxItems, 0, s.logger)
	}
	if s.conversation == nil {
		s.conversation = advisor.NewConversation(0)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recentLimit <= 0 {
		s.recentLimit = 5
	}
	if s.searchLimit <= 0 {
		s.searchLimit = 200
	}
	return s
}

// Start loads the persisted state. Mutations are rejected until it succeeds.
// A store failure is returned and the service stays unstarted, so the stored
// ledger is never replaced by defaults.
func (s *BudgetService) Start(ctx context.Context) error {
	state, dropped, err := s.gateway.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load state",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return err
	}
	if dropped.Total() > 0 {
		s.logger.WarnContext(ctx, "Skipped unreadable entries in stored state",
			log.FieldOperation, log.OpLoad,
			"transactions", dropped.Transactions,
			"categories", dropped.Categories,
			"accounts", dropped.Accounts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.started = true
	s.epoch = time.Now().UnixNano()
	s.version++
	s.logger.InfoContext(ctx, "State loaded",
		log.FieldOperation, log.OpLoad,
		"transactions", len(state.Transactions),
		"categories", len(state.Categories))
	return nil
}

// State returns a copy of the current root.
func (s *BudgetService) State() core.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Version increases with every accepted mutation.
func (s *BudgetService) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Started reports whether the initial load has completed.
func (s *BudgetService) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Locked reports whether a PIN is set and has not been entered yet.
func (s *BudgetService) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.HasPin() && !s.state.IsAuthenticated
}

func (s *BudgetService) ref() time.Time {
	return s.now().In(s.loc)
}

// mutate applies fn to the current root under the write lock and commits the
// result. fn must not modify its argument.
func (s *BudgetService) mutate(ctx context.Context, op string, fn func(core.AppState) (core.AppState, error)) (core.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return s.state, ErrNotStarted
	}
	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.commitLocked(ctx, op, next)
	return next, nil
}

// commitLocked installs next and persists it. Persistence failures are
// logged; the in-memory state stays authoritative.
func (s *BudgetService) commitLocked(ctx context.Context, op string, next core.AppState) {
	s.state = next
	s.version++

	if err := s.gateway.Save(ctx, next); err != nil {
		s.events.LogError(ctx, "Failed to save state", err, log.ComponentStorage, log.OpSave,
			log.NewFields().WithOperation(op))
		return
	}
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(s.epoch, s.version, op, len(next.Transactions))
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, op, log.FieldError, err)
	}
}

// notifyAlerts hands events to the notifier; delivery failures are only logged.
func (s *BudgetService) notifyAlerts(ctx context.Context, lang core.Language, events []ledger.AlertEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, lang, events); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver budget alert",
			log.FieldOperation, log.OpNotify, log.FieldError, err)
	}
}
