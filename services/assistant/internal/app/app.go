package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/dispatch"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/fixtures"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/model"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/store"
)

// Gateway is the model service surface the application depends on.
type Gateway interface {
	SynthesizeBriefing(ctx context.Context, emails []domain.EmailMessage, events []domain.CalendarEvent, prefs domain.UserPreferences) (domain.Briefing, error)
	SynthesizeDraft(ctx context.Context, personName, slot, topic string, styleSamples []string) (model.DraftText, error)
	Converse(ctx context.Context, message string, history []domain.Turn) (string, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	Gateway     Gateway
	Preferences *store.PreferenceStore
	Log         *store.ConversationLog
	Mailbox     fixtures.Mailbox
	Publisher   dispatch.Publisher
	Clock       clockwork.Clock
	Logger      *slog.Logger

	// SendLatency is the simulated send time before a dispatch is logged.
	SendLatency time.Duration
	// DeliveredAfter and OpenedAfter are measured from the dispatch.
	DeliveredAfter time.Duration
	OpenedAfter    time.Duration
}

// State is the action orchestrator state.
type State string

const (
	StateIdle                State = "idle"
	StateDrafting            State = "drafting"
	StatePendingConfirmation State = "pendingConfirmation"
	StateSending             State = "sending"
)

// App owns all session state. Views mutate it only through its methods.
type App struct {
	gateway   Gateway
	prefs     *store.PreferenceStore
	log       *store.ConversationLog
	mailbox   fixtures.Mailbox
	publisher dispatch.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger

	sendLatency    time.Duration
	deliveredAfter time.Duration
	openedAfter    time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	refresh singleflight.Group

	mu          sync.Mutex
	briefing    *domain.Briefing
	refreshedAt time.Time
	loading     bool
	lastError   string
	state       State
	draft       *domain.EmailDraft
	chatting    bool
	dispatches  map[string]*pendingDispatch // system entry id -> outstanding timers
	closed      bool
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("model gateway required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	prefs := cfg.Preferences
	if prefs == nil {
		prefs = store.NewPreferenceStore(domain.DefaultPreferences())
	}
	log := cfg.Log
	if log == nil {
		log = store.NewConversationLog(clock)
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = dispatch.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sendLatency := cfg.SendLatency
	if sendLatency <= 0 {
		sendLatency = 1500 * time.Millisecond
	}
	deliveredAfter := cfg.DeliveredAfter
	if deliveredAfter <= 0 {
		deliveredAfter = 4 * time.Second
	}
	openedAfter := cfg.OpenedAfter
	if openedAfter <= 0 {
		openedAfter = 8 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		gateway:        cfg.Gateway,
		prefs:          prefs,
		log:            log,
		mailbox:        cfg.Mailbox,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
		sendLatency:    sendLatency,
		deliveredAfter: deliveredAfter,
		openedAfter:    openedAfter,
		baseCtx:        ctx,
		cancel:         cancel,
		state:          StateIdle,
		dispatches:     make(map[string]*pendingDispatch),
	}, nil
}

// Mailbox returns the fixture inputs.
func (a *App) Mailbox() fixtures.Mailbox { return a.mailbox }

// Preferences returns the preference store.
func (a *App) Preferences() *store.PreferenceStore { return a.prefs }

// Conversation returns every conversation entry in order.
func (a *App) Conversation() []domain.ConversationEntry { return a.log.List() }

// Status is a snapshot of the orchestrator and loading flags.
type Status struct {
	State            State `json:"state"`
	HasPendingDraft  bool  `json:"hasPendingDraft"`
	BriefingLoading  bool  `json:"briefingLoading"`
	ChatInFlight     bool  `json:"chatInFlight"`
	ActiveDispatches int   `json:"activeDispatches"`
}

// Status reports the current orchestrator state.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		State:            a.state,
		HasPendingDraft:  a.draft != nil,
		BriefingLoading:  a.loading,
		ChatInFlight:     a.chatting,
		ActiveDispatches: len(a.dispatches),
	}
}

// Close cancels background work and stops every outstanding dispatch timer.
func (a *App) Close() {
	a.mu.Lock()
	a.closed = true
	for id, pd := range a.dispatches {
		for _, timer := range pd.timers {
			timer.Stop()
		}
		delete(a.dispatches, id)
	}
	a.mu.Unlock()
	a.cancel()
}
