package app

import (
	"context"
	"time"

	"github.com/vishal-official/Email-Assistant/internal/metrics"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

// BriefingState is the briefing session as seen by views.
type BriefingState struct {
	Briefing    *domain.Briefing `json:"briefing"`
	Loading     bool             `json:"loading"`
	RefreshedAt *time.Time       `json:"refreshedAt,omitempty"`
	LastError   string           `json:"lastError,omitempty"`
}

// Briefing returns the current briefing session.
func (a *App) Briefing() BriefingState {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := BriefingState{Loading: a.loading, LastError: a.lastError}
	if a.briefing != nil {
		b := *a.briefing
		state.Briefing = &b
		at := a.refreshedAt
		state.RefreshedAt = &at
	}
	return state
}

// RefreshBriefing synthesizes a new briefing and replaces the current one.
// Concurrent callers share a single in-flight request. On failure the
// previous briefing is kept. ctx only bounds how long the caller waits.
func (a *App) RefreshBriefing(ctx context.Context) (domain.Briefing, error) {
	ch := a.refresh.DoChan("briefing", func() (any, error) {
		return a.refreshBriefing()
	})
	select {
	case <-ctx.Done():
		return domain.Briefing{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Briefing{}, res.Err
		}
		return res.Val.(domain.Briefing), nil
	}
}

func (a *App) refreshBriefing() (domain.Briefing, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return domain.Briefing{}, ErrClosed
	}
	a.loading = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.loading = false
		a.mu.Unlock()
	}()

	briefing, err := a.gateway.SynthesizeBriefing(a.baseCtx, a.mailbox.Emails, a.mailbox.Events, a.prefs.Get())
	if err != nil {
		a.logger.Error("briefing refresh failed", "err", err)
		metrics.IncrementBriefingRefresh("failed")
		a.mu.Lock()
		a.lastError = err.Error()
		a.mu.Unlock()
		return domain.Briefing{}, err
	}

	a.mu.Lock()
	a.briefing = &briefing
	a.refreshedAt = a.clock.Now().UTC()
	a.lastError = ""
	a.mu.Unlock()
	metrics.IncrementBriefingRefresh("success")
	a.logger.Info("briefing refreshed",
		"meetings", len(briefing.Meetings),
		"urgent", len(briefing.UrgentItems),
		"actions", len(briefing.ActionRequiredItems),
		"pending_calls", len(briefing.PendingCalls),
	)
	return briefing, nil
}
