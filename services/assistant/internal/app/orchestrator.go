package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vishal-official/Email-Assistant/internal/metrics"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
	"github.com/vishal-official/Email-Assistant/services/assistant/internal/dispatch"
)

const (
	defaultTopic       = "Follow-up"
	defaultRecipient   = "recipient@example.com"
	defaultSubject     = "Action Required"
	defaultContactName = "Contact"

	publishTimeout = 2 * time.Second
)

type pendingDispatch struct {
	draft  domain.EmailDraft
	timers map[dispatch.Stage]clockwork.Timer
}

// RequestAction synthesizes a draft for req and holds it for confirmation.
// Only one action may be active: a pending draft yields ErrDraftPending and a
// draft being synthesized or sent yields ErrActionInProgress.
func (a *App) RequestAction(ctx context.Context, req domain.ActionRequest) (domain.EmailDraft, error) {
	if req == nil {
		return domain.EmailDraft{}, ErrUnknownAction
	}
	kind := string(req.Kind())

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return domain.EmailDraft{}, ErrClosed
	}
	switch a.state {
	case StatePendingConfirmation:
		a.mu.Unlock()
		metrics.IncrementDraft(kind, "rejected")
		return domain.EmailDraft{}, ErrDraftPending
	case StateDrafting, StateSending:
		a.mu.Unlock()
		metrics.IncrementDraft(kind, "rejected")
		return domain.EmailDraft{}, ErrActionInProgress
	}
	a.state = StateDrafting
	briefing := a.briefing
	a.mu.Unlock()

	samples := a.prefs.Get().WritingStyleSamples
	var (
		draft domain.EmailDraft
		err   error
	)
	switch r := req.(type) {
	case domain.CoordinationRequest:
		draft, err = a.coordinationDraft(ctx, r, briefing, samples)
	case domain.ReplyRequest:
		draft, err = a.itemDraft(ctx, domain.ActionReply, r.Item, samples)
	case domain.ApprovalRequest:
		draft, err = a.itemDraft(ctx, domain.ActionApproval, r.Item, samples)
	default:
		err = ErrUnknownAction
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateIdle
		metrics.IncrementDraft(kind, "failed")
		a.logger.Error("draft synthesis failed", "kind", kind, "err", err)
		return domain.EmailDraft{}, err
	}
	a.draft = &draft
	a.state = StatePendingConfirmation
	metrics.IncrementDraft(kind, "success")
	return draft, nil
}

func (a *App) coordinationDraft(ctx context.Context, req domain.CoordinationRequest, briefing *domain.Briefing, samples []string) (domain.EmailDraft, error) {
	topic := defaultTopic
	if call, ok := briefing.PendingCallFor(req.Person); ok && strings.TrimSpace(call.Topic) != "" {
		topic = call.Topic
	}
	text, err := a.gateway.SynthesizeDraft(ctx, req.Person, req.Slot, topic, samples)
	if err != nil {
		return domain.EmailDraft{}, fmt.Errorf("coordination draft: %w", err)
	}
	to := strings.TrimSpace(text.To)
	if to == "" {
		to = addressFor(req.Person)
	}
	return domain.EmailDraft{
		To:         to,
		Subject:    text.Subject,
		Body:       text.Body,
		PersonName: req.Person,
		Slot:       req.Slot,
		Type:       domain.ActionCoordination,
	}, nil
}

func (a *App) itemDraft(ctx context.Context, kind domain.ActionKind, item domain.ItemRef, samples []string) (domain.EmailDraft, error) {
	instruction := fmt.Sprintf("Based on my tone samples, draft a quick %s for the item: \"%s\". Context: from %s.", kind, item.Label(), item.From)
	if len(samples) > 0 {
		instruction += "\nTone samples: " + strings.Join(samples, " | ")
	}
	body, err := a.gateway.Converse(ctx, instruction, nil)
	if err != nil {
		return domain.EmailDraft{}, fmt.Errorf("%s draft: %w", kind, err)
	}
	draft := domain.EmailDraft{
		To:         item.From,
		Subject:    "Re: " + item.Title,
		Body:       body,
		PersonName: item.From,
		Type:       kind,
	}
	if draft.To == "" {
		draft.To = defaultRecipient
	}
	if item.Title == "" {
		draft.Subject = "Re: " + defaultSubject
	}
	if draft.PersonName == "" {
		draft.PersonName = defaultContactName
	}
	return draft, nil
}

// addressFor derives first.last@example.com from a display name.
func addressFor(person string) string {
	parts := strings.Fields(strings.ToLower(person))
	if len(parts) == 0 {
		return defaultRecipient
	}
	return strings.Join(parts, ".") + "@example.com"
}

// PendingDraft returns the draft awaiting confirmation.
func (a *App) PendingDraft() (domain.EmailDraft, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return domain.EmailDraft{}, false
	}
	return *a.draft, true
}

// CancelDraft discards the pending draft.
func (a *App) CancelDraft() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StatePendingConfirmation || a.draft == nil {
		return ErrNoPendingDraft
	}
	metrics.IncrementDraft(string(a.draft.Type), "cancelled")
	a.draft = nil
	a.state = StateIdle
	return nil
}

// ConfirmDraft simulates sending the pending draft. editedBody, when non-nil
// and different from the drafted body, is learned as a writing-style sample.
// The returned entry is the system dispatch entry; its delivered and opened
// follow-ups are scheduled on the clock.
func (a *App) ConfirmDraft(ctx context.Context, editedBody *string) (domain.ConversationEntry, error) {
	a.mu.Lock()
	if a.state != StatePendingConfirmation || a.draft == nil {
		a.mu.Unlock()
		return domain.ConversationEntry{}, ErrNoPendingDraft
	}
	draft := *a.draft
	a.state = StateSending
	a.mu.Unlock()

	timer := a.clock.NewTimer(a.sendLatency)
	select {
	case <-timer.Chan():
	case <-ctx.Done():
		timer.Stop()
		a.revertToPending()
		return domain.ConversationEntry{}, ctx.Err()
	case <-a.baseCtx.Done():
		timer.Stop()
		a.revertToPending()
		return domain.ConversationEntry{}, ErrClosed
	}

	if editedBody != nil && *editedBody != draft.Body {
		a.prefs.AddStyleSample(*editedBody)
		draft.Body = *editedBody
	}
	entry := a.log.Append(domain.RoleSystem,
		fmt.Sprintf("Email Dispatched: \"%s\" to %s. Agent is now monitoring for a response.", draft.Subject, draft.PersonName),
		domain.DeliverySent)

	a.mu.Lock()
	a.draft = nil
	a.state = StateIdle
	if !a.closed {
		a.scheduleLocked(entry.ID, draft)
	}
	a.mu.Unlock()

	a.logger.Info("draft dispatched", "dispatch_id", entry.ID, "kind", draft.Type, "person", draft.PersonName)
	a.recordStage(entry.ID, dispatch.StageSent, draft)
	return entry, nil
}

func (a *App) revertToPending() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateSending {
		a.state = StatePendingConfirmation
	}
}

// scheduleLocked arms the delivered and opened timers for a dispatch.
// Callers hold a.mu.
func (a *App) scheduleLocked(id string, draft domain.EmailDraft) {
	pd := &pendingDispatch{draft: draft, timers: make(map[dispatch.Stage]clockwork.Timer, 2)}
	pd.timers[dispatch.StageDelivered] = a.clock.AfterFunc(a.deliveredAfter, func() {
		a.fire(id, dispatch.StageDelivered)
	})
	pd.timers[dispatch.StageOpened] = a.clock.AfterFunc(a.openedAfter, func() {
		a.fire(id, dispatch.StageOpened)
	})
	a.dispatches[id] = pd
}

func (a *App) fire(id string, stage dispatch.Stage) {
	a.mu.Lock()
	pd, ok := a.dispatches[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	if _, armed := pd.timers[stage]; !armed {
		a.mu.Unlock()
		return
	}
	delete(pd.timers, stage)
	if len(pd.timers) == 0 {
		delete(a.dispatches, id)
	}
	draft := pd.draft
	a.mu.Unlock()

	switch stage {
	case dispatch.StageDelivered:
		if _, err := a.log.MarkDelivered(id); err != nil {
			a.logger.Warn("mark delivered failed", "dispatch_id", id, "err", err)
			return
		}
	case dispatch.StageOpened:
		a.log.Append(domain.RoleAssistant,
			fmt.Sprintf("Confirming: %s has opened the coordination email. I'll alert you as soon as they select a slot or suggest an alternative.", draft.PersonName),
			"")
	}
	a.recordStage(id, stage, draft)
}

// CancelDispatch stops the outstanding follow-ups of a dispatch.
func (a *App) CancelDispatch(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	pd, ok := a.dispatches[id]
	if !ok {
		return false
	}
	for _, timer := range pd.timers {
		timer.Stop()
	}
	delete(a.dispatches, id)
	return true
}

func (a *App) recordStage(id string, stage dispatch.Stage, draft domain.EmailDraft) {
	metrics.IncrementDispatchStage(string(stage))
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err := a.publisher.Publish(ctx, dispatch.Event{
		DispatchID: id,
		Stage:      stage,
		Kind:       string(draft.Type),
		To:         draft.To,
		Subject:    draft.Subject,
		PersonName: draft.PersonName,
		At:         a.clock.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("publish dispatch event failed", "dispatch_id", id, "stage", stage, "err", err)
	}
}
