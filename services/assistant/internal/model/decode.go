package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vishal-official/Email-Assistant/pkg/ai"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

// Wire shapes use pointers so absent required fields can be told apart from
// empty ones.

type wireBriefing struct {
	Summary             *string            `json:"summary"`
	Meetings            *[]wireMeeting     `json:"meetings"`
	UrgentItems         *[]wireUrgentItem  `json:"urgentItems"`
	ActionRequiredItems *[]wireActionItem  `json:"actionRequiredItems"`
	PendingCalls        *[]wirePendingCall `json:"pendingCalls"`
}

type wireMeeting struct {
	Title              *string   `json:"title"`
	Time               *string   `json:"time"`
	Context            *string   `json:"context"`
	Agenda             *[]string `json:"agenda"`
	DescriptionSummary *string   `json:"descriptionSummary"`
	Preparation        string    `json:"preparation"`
}

type wireUrgentItem struct {
	MessageID *string `json:"messageId"`
	Title     *string `json:"title"`
	From      *string `json:"from"`
	Reason    *string `json:"reason"`
	Deadline  string  `json:"deadline"`
	Action    *string `json:"action"`
}

type wireActionItem struct {
	MessageID   *string `json:"messageId"`
	Title       *string `json:"title"`
	From        *string `json:"from"`
	Description *string `json:"description"`
	Deadline    string  `json:"deadline"`
	Category    *string `json:"category"`
}

type wirePendingCall struct {
	Person         *string   `json:"person"`
	Topic          *string   `json:"topic"`
	SuggestedSlots *[]string `json:"suggestedSlots"`
}

type wireDraft struct {
	To      *string `json:"to"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

// fields collects the first missing required field while copying values.
type fields struct {
	missing string
}

func (f *fields) str(path string, v *string) string {
	if v == nil {
		if f.missing == "" {
			f.missing = path
		}
		return ""
	}
	return *v
}

func (f *fields) strs(path string, v *[]string) []string {
	if v == nil {
		if f.missing == "" {
			f.missing = path
		}
		return nil
	}
	return append([]string{}, (*v)...)
}

func (f *fields) err() error {
	if f.missing == "" {
		return nil
	}
	return &missingFieldError{Path: f.missing}
}

func unmarshalObject(text string, out any) error {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		extracted, err := ai.ExtractJSON(text)
		if err != nil {
			return err
		}
		text = extracted
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeBriefing(text string) (domain.Briefing, error) {
	var wire wireBriefing
	if err := unmarshalObject(text, &wire); err != nil {
		return domain.Briefing{}, err
	}
	var f fields
	out := domain.Briefing{Summary: f.str("summary", wire.Summary)}

	if wire.Meetings == nil {
		f.str("meetings", nil)
	} else {
		out.Meetings = make([]domain.Meeting, 0, len(*wire.Meetings))
		for i, m := range *wire.Meetings {
			p := fmt.Sprintf("meetings[%d].", i)
			out.Meetings = append(out.Meetings, domain.Meeting{
				Title:              f.str(p+"title", m.Title),
				Time:               f.str(p+"time", m.Time),
				Context:            f.str(p+"context", m.Context),
				Agenda:             f.strs(p+"agenda", m.Agenda),
				DescriptionSummary: f.str(p+"descriptionSummary", m.DescriptionSummary),
				Preparation:        m.Preparation,
			})
		}
	}

	if wire.UrgentItems == nil {
		f.str("urgentItems", nil)
	} else {
		out.UrgentItems = make([]domain.UrgentItem, 0, len(*wire.UrgentItems))
		for i, u := range *wire.UrgentItems {
			p := fmt.Sprintf("urgentItems[%d].", i)
			out.UrgentItems = append(out.UrgentItems, domain.UrgentItem{
				MessageID: f.str(p+"messageId", u.MessageID),
				Title:     f.str(p+"title", u.Title),
				From:      f.str(p+"from", u.From),
				Reason:    f.str(p+"reason", u.Reason),
				Deadline:  u.Deadline,
				Action:    f.str(p+"action", u.Action),
			})
		}
	}

	if wire.ActionRequiredItems == nil {
		f.str("actionRequiredItems", nil)
	} else {
		out.ActionRequiredItems = make([]domain.ActionItem, 0, len(*wire.ActionRequiredItems))
		for i, a := range *wire.ActionRequiredItems {
			p := fmt.Sprintf("actionRequiredItems[%d].", i)
			category := domain.ItemCategory(f.str(p+"category", a.Category))
			if a.Category != nil && !category.Valid() {
				return domain.Briefing{}, fmt.Errorf("unknown category %q at %scategory", *a.Category, p)
			}
			out.ActionRequiredItems = append(out.ActionRequiredItems, domain.ActionItem{
				MessageID:   f.str(p+"messageId", a.MessageID),
				Title:       f.str(p+"title", a.Title),
				From:        f.str(p+"from", a.From),
				Description: f.str(p+"description", a.Description),
				Deadline:    a.Deadline,
				Category:    category,
			})
		}
	}

	if wire.PendingCalls == nil {
		f.str("pendingCalls", nil)
	} else {
		out.PendingCalls = make([]domain.PendingCall, 0, len(*wire.PendingCalls))
		for i, c := range *wire.PendingCalls {
			p := fmt.Sprintf("pendingCalls[%d].", i)
			out.PendingCalls = append(out.PendingCalls, domain.PendingCall{
				Person:         f.str(p+"person", c.Person),
				Topic:          f.str(p+"topic", c.Topic),
				SuggestedSlots: f.strs(p+"suggestedSlots", c.SuggestedSlots),
			})
		}
	}

	if err := f.err(); err != nil {
		return domain.Briefing{}, err
	}
	return out, nil
}

func decodeDraft(text string) (DraftText, error) {
	var wire wireDraft
	if err := unmarshalObject(text, &wire); err != nil {
		return DraftText{}, err
	}
	var f fields
	out := DraftText{
		To:      f.str("to", wire.To),
		Subject: f.str("subject", wire.Subject),
		Body:    f.str("body", wire.Body),
	}
	if err := f.err(); err != nil {
		return DraftText{}, err
	}
	return out, nil
}
