package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vishal-official/Email-Assistant/pkg/ai"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

const validBriefing = `{
  "summary": "Busy day with a contract deadline.",
  "meetings": [{"title": "Project X Review", "time": "09:00", "context": "Weekly", "agenda": ["Q1"], "descriptionSummary": "Q1 follow-up."}],
  "urgentItems": [{"messageId": "msg-1", "title": "Contract Review", "from": "legal@acmecorp.com", "reason": "Due EOD", "action": "Review"}],
  "actionRequiredItems": [{"messageId": "msg-4", "title": "Budget", "from": "sarah.cfo@mycompany.com", "description": "Approve budget", "category": "approval"}],
  "pendingCalls": [{"person": "Jane Doe", "topic": "Q2 planning", "suggestedSlots": ["Tuesday 2pm", "Wednesday 10am"]}]
}`

func newTestGateway(t *testing.T, fn ai.GeneratorFunc) *Gateway {
	t.Helper()
	g, err := New(Config{
		Reasoning: fn,
		Clock:     clockwork.NewFakeClockAt(time.Date(2025, 5, 20, 7, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestSynthesizeBriefingDecodesResponse(t *testing.T) {
	var got ai.Request
	g := newTestGateway(t, func(_ context.Context, req ai.Request) (string, error) {
		got = req
		return validBriefing, nil
	})
	emails := []domain.EmailMessage{{ID: "msg-1", From: "legal@acmecorp.com", Subject: "URGENT"}}
	b, err := g.SynthesizeBriefing(context.Background(), emails, nil, domain.DefaultPreferences())
	if err != nil {
		t.Fatalf("SynthesizeBriefing: %v", err)
	}
	if b.Summary == "" || len(b.Meetings) != 1 || len(b.PendingCalls) != 1 {
		t.Fatalf("unexpected briefing: %+v", b)
	}
	if b.ActionRequiredItems[0].Category != domain.CategoryApproval {
		t.Fatalf("category = %q", b.ActionRequiredItems[0].Category)
	}
	if got.Schema != briefingSchema {
		t.Fatalf("briefing request should carry the briefing schema")
	}
	if !strings.Contains(got.Prompt, "TODAY'S DATE: 5/20/2025") || !strings.Contains(got.Prompt, "msg-1") {
		t.Fatalf("prompt missing inputs: %s", got.Prompt)
	}
	if got.SystemPrompt != systemInstruction {
		t.Fatalf("system instruction not sent")
	}
}

func TestSynthesizeBriefingMissingFieldIsSynthesisError(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return `{"summary":"x","meetings":[],"urgentItems":[],"actionRequiredItems":[]}`, nil
	})
	_, err := g.SynthesizeBriefing(context.Background(), nil, nil, domain.DefaultPreferences())
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) || synthErr.Op != OpBriefing {
		t.Fatalf("expected briefing SynthesisError, got %v", err)
	}
	if !strings.Contains(err.Error(), "pendingCalls") {
		t.Fatalf("error should name the missing field: %v", err)
	}
}

func TestSynthesizeBriefingNestedMissingField(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return strings.Replace(validBriefing, `"reason": "Due EOD", `, "", 1), nil
	})
	_, err := g.SynthesizeBriefing(context.Background(), nil, nil, domain.DefaultPreferences())
	if err == nil || !strings.Contains(err.Error(), "urgentItems[0].reason") {
		t.Fatalf("expected missing reason error, got %v", err)
	}
}

func TestSynthesizeBriefingRejectsUnknownCategory(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return strings.Replace(validBriefing, `"category": "approval"`, `"category": "urgent"`, 1), nil
	})
	if _, err := g.SynthesizeBriefing(context.Background(), nil, nil, domain.DefaultPreferences()); err == nil {
		t.Fatalf("expected unknown category to fail")
	}
}

func TestSynthesizeBriefingUnparseableText(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return "I cannot help with that.", nil
	})
	_, err := g.SynthesizeBriefing(context.Background(), nil, nil, domain.DefaultPreferences())
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
}

func TestSynthesizeBriefingWrapsTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return "", cause
	})
	_, err := g.SynthesizeBriefing(context.Background(), nil, nil, domain.DefaultPreferences())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestSynthesizeDraftLimitsSamplesAndUsesFastModel(t *testing.T) {
	var fastCalls, reasoningCalls int
	var prompt string
	g, err := New(Config{
		Reasoning: ai.GeneratorFunc(func(context.Context, ai.Request) (string, error) {
			reasoningCalls++
			return "", nil
		}),
		Fast: ai.GeneratorFunc(func(_ context.Context, req ai.Request) (string, error) {
			fastCalls++
			prompt = req.Prompt
			return "```json\n{\"to\":\"jane.doe@example.com\",\"subject\":\"Q2\",\"body\":\"Hi Jane\"}\n```", nil
		}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	samples := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	draft, err := g.SynthesizeDraft(context.Background(), "Jane Doe", "Tuesday 2pm", "Q2 planning", samples)
	if err != nil {
		t.Fatalf("SynthesizeDraft: %v", err)
	}
	if draft.To != "jane.doe@example.com" || draft.Body != "Hi Jane" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if fastCalls != 1 || reasoningCalls != 0 {
		t.Fatalf("fast=%d reasoning=%d, want 1/0", fastCalls, reasoningCalls)
	}
	if strings.Contains(prompt, "s6") || !strings.Contains(prompt, "s1 | s2 | s3 | s4 | s5") {
		t.Fatalf("prompt should carry exactly five samples: %s", prompt)
	}
	if !strings.Contains(prompt, `Draft a coordination email to Jane Doe for "Q2 planning" at Tuesday 2pm.`) {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestSynthesizeDraftMissingBody(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return `{"to":"a@example.com","subject":"s"}`, nil
	})
	_, err := g.SynthesizeDraft(context.Background(), "A", "now", "t", nil)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) || synthErr.Op != OpDraft {
		t.Fatalf("expected draft SynthesisError, got %v", err)
	}
}

func TestConverseMapsHistoryRoles(t *testing.T) {
	var got ai.Request
	g := newTestGateway(t, func(_ context.Context, req ai.Request) (string, error) {
		got = req
		return "Sure thing.", nil
	})
	history := []domain.Turn{{Role: "user", Text: "hi"}, {Role: "model", Text: "hello"}}
	reply, err := g.Converse(context.Background(), "what's next?", history)
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if reply != "Sure thing." {
		t.Fatalf("reply = %q", reply)
	}
	if len(got.History) != 2 || got.History[1].Role != ai.RoleModel || got.Prompt != "what's next?" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Schema != nil {
		t.Fatalf("chat should not request structured output")
	}
}

func TestConverseFallsBackOnEmptyText(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return "", ai.ErrEmptyResponse
	})
	reply, err := g.Converse(context.Background(), "hello", nil)
	if err != nil || reply != FallbackReply {
		t.Fatalf("Converse = %q, %v; want fallback", reply, err)
	}
}

func TestConverseTransportErrorIsSynthesisError(t *testing.T) {
	g := newTestGateway(t, func(context.Context, ai.Request) (string, error) {
		return "", errors.New("401 unauthorized")
	})
	_, err := g.Converse(context.Background(), "hello", nil)
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) || synthErr.Op != OpChat {
		t.Fatalf("expected chat SynthesisError, got %v", err)
	}
}

func TestNewRequiresReasoningGenerator(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without generator")
	}
}
