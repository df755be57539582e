package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vishal-official/Email-Assistant/internal/metrics"
	"github.com/vishal-official/Email-Assistant/pkg/ai"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

const (
	OpBriefing = "briefing"
	OpDraft    = "draft"
	OpChat     = "chat"

	// FallbackReply is returned by Converse when the model yields no text.
	FallbackReply = "Assistant unavailable."
)

// DraftText is the model-authored part of a coordination draft.
type DraftText struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Config wires the gateway to its generators.
type Config struct {
	// Reasoning serves briefing synthesis and chat.
	Reasoning ai.Generator
	// Fast serves draft synthesis. Defaults to Reasoning.
	Fast  ai.Generator
	Clock clockwork.Clock
}

// Gateway issues the three request types to the generative-model service.
// It performs no retries.
type Gateway struct {
	reasoning ai.Generator
	fast      ai.Generator
	clock     clockwork.Clock
}

// New constructs a Gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Reasoning == nil {
		return nil, fmt.Errorf("reasoning generator required")
	}
	fast := cfg.Fast
	if fast == nil {
		fast = cfg.Reasoning
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gateway{reasoning: cfg.Reasoning, fast: fast, clock: clock}, nil
}

// SynthesizeBriefing asks the model for a structured daily briefing.
func (g *Gateway) SynthesizeBriefing(ctx context.Context, emails []domain.EmailMessage, events []domain.CalendarEvent, prefs domain.UserPreferences) (briefing domain.Briefing, err error) {
	defer g.observe(OpBriefing, g.clock.Now(), &err)

	prompt, err := briefingPrompt(g.clock.Now(), emails, events, prefs)
	if err != nil {
		return domain.Briefing{}, &SynthesisError{Op: OpBriefing, Err: err}
	}
	text, err := g.reasoning.Generate(ctx, ai.Request{
		SystemPrompt: systemInstruction,
		Prompt:       prompt,
		Schema:       briefingSchema,
	})
	if err != nil {
		return domain.Briefing{}, &SynthesisError{Op: OpBriefing, Err: err}
	}
	briefing, err = decodeBriefing(text)
	if err != nil {
		return domain.Briefing{}, &SynthesisError{Op: OpBriefing, Err: err}
	}
	return briefing, nil
}

// SynthesizeDraft asks the model for a coordination email. At most
// domain.MaxStyleSamples samples are forwarded.
func (g *Gateway) SynthesizeDraft(ctx context.Context, personName, slot, topic string, styleSamples []string) (draft DraftText, err error) {
	defer g.observe(OpDraft, g.clock.Now(), &err)

	if len(styleSamples) > domain.MaxStyleSamples {
		styleSamples = styleSamples[:domain.MaxStyleSamples]
	}
	text, err := g.fast.Generate(ctx, ai.Request{
		SystemPrompt: systemInstruction,
		Prompt:       draftPrompt(personName, slot, topic, styleSamples),
		Schema:       draftSchema,
	})
	if err != nil {
		return DraftText{}, &SynthesisError{Op: OpDraft, Err: err}
	}
	draft, err = decodeDraft(text)
	if err != nil {
		return DraftText{}, &SynthesisError{Op: OpDraft, Err: err}
	}
	return draft, nil
}

// Converse sends message with prior turns and returns the reply text.
func (g *Gateway) Converse(ctx context.Context, message string, history []domain.Turn) (reply string, err error) {
	defer g.observe(OpChat, g.clock.Now(), &err)

	msgs := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == ai.RoleModel {
			role = ai.RoleModel
		}
		msgs = append(msgs, ai.Message{Role: role, Text: turn.Text})
	}
	text, err := g.reasoning.Generate(ctx, ai.Request{
		SystemPrompt: systemInstruction,
		History:      msgs,
		Prompt:       message,
	})
	if errors.Is(err, ai.ErrEmptyResponse) {
		return FallbackReply, nil
	}
	if err != nil {
		return "", &SynthesisError{Op: OpChat, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return FallbackReply, nil
	}
	return text, nil
}

func (g *Gateway) observe(op string, start time.Time, errp *error) {
	metrics.RecordModelCall(op, *errp, g.clock.Since(start))
}
