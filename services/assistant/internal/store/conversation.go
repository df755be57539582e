package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

// ConversationLog is the append-only sequence of chat entries for a session.
// Entries are addressed by id; the only mutation after append is MarkDelivered.
type ConversationLog struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	entries []domain.ConversationEntry
	index   map[string]int // entry id -> position
}

// NewConversationLog initializes an empty log. A nil clock uses wall time.
func NewConversationLog(clock clockwork.Clock) *ConversationLog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConversationLog{
		clock: clock,
		index: make(map[string]int),
	}
}

// Append records a new entry and returns it with its id and timestamp set.
func (l *ConversationLog) Append(role domain.Role, content string, status domain.DeliveryStatus) domain.ConversationEntry {
	entry := domain.ConversationEntry{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: l.clock.Now().UTC(),
		Status:    status,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.index[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
	return entry
}

// MarkDelivered moves the entry from sent to delivered. Any other starting
// status, including an already delivered entry, is ErrInvalidTransition.
func (l *ConversationLog) MarkDelivered(id string) (domain.ConversationEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[id]
	if !ok {
		return domain.ConversationEntry{}, ErrEntryNotFound
	}
	if l.entries[pos].Status != domain.DeliverySent {
		return l.entries[pos], ErrInvalidTransition
	}
	l.entries[pos].Status = domain.DeliveryDelivered
	return l.entries[pos], nil
}

// Get returns the entry with the given id.
func (l *ConversationLog) Get(id string) (domain.ConversationEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.index[id]
	if !ok {
		return domain.ConversationEntry{}, false
	}
	return l.entries[pos], true
}

// List returns all entries in append order.
func (l *ConversationLog) List() []domain.ConversationEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ConversationEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// History returns the user and assistant entries among the first n entries as
// conversational turns. System entries are dispatch logs and never sent to
// the model.
func (l *ConversationLog) History(n int) []domain.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	turns := make([]domain.Turn, 0, n)
	for _, entry := range l.entries[:n] {
		switch entry.Role {
		case domain.RoleUser:
			turns = append(turns, domain.Turn{Role: "user", Text: entry.Content})
		case domain.RoleAssistant:
			turns = append(turns, domain.Turn{Role: "model", Text: entry.Content})
		}
	}
	return turns
}
