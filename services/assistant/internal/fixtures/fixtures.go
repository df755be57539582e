// Package fixtures loads the mailbox and calendar the assistant briefs on.
package fixtures

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

//go:embed mailbox.yaml
var defaultMailbox []byte

// Mailbox is the immutable input set for briefing synthesis.
type Mailbox struct {
	Emails []domain.EmailMessage  `json:"emails"`
	Events []domain.CalendarEvent `json:"events"`
}

type fileMailbox struct {
	Emails []fileEmail         `yaml:"emails"`
	Events []fileCalendarEvent `yaml:"events"`
}

type fileEmail struct {
	ID             string   `yaml:"id"`
	From           string   `yaml:"from"`
	Subject        string   `yaml:"subject"`
	Body           string   `yaml:"body"`
	Format         string   `yaml:"format"` // text (default) or html
	Received       string   `yaml:"received"`
	ReceivedOffset string   `yaml:"receivedOffset"`
	IsRead         bool     `yaml:"isRead"`
	Labels         []string `yaml:"labels"`
}

type fileCalendarEvent struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Start       time.Time `yaml:"start"`
	End         time.Time `yaml:"end"`
	Attendees   []string  `yaml:"attendees"`
	Description string    `yaml:"description"`
	Location    string    `yaml:"location"`
	HangoutLink string    `yaml:"hangoutLink"`
}

// Load reads the mailbox at path, or the embedded default when path is empty.
// Relative received offsets are resolved against now.
func Load(path string, now time.Time) (Mailbox, error) {
	data := defaultMailbox
	if strings.TrimSpace(path) != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Mailbox{}, fmt.Errorf("read fixtures: %w", err)
		}
	}
	return Parse(data, now)
}

// Parse decodes mailbox YAML.
func Parse(data []byte, now time.Time) (Mailbox, error) {
	var raw fileMailbox
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Mailbox{}, fmt.Errorf("parse fixtures: %w", err)
	}
	out := Mailbox{
		Emails: make([]domain.EmailMessage, 0, len(raw.Emails)),
		Events: make([]domain.CalendarEvent, 0, len(raw.Events)),
	}
	for _, e := range raw.Emails {
		if strings.TrimSpace(e.ID) == "" {
			return Mailbox{}, fmt.Errorf("email without id")
		}
		received, err := resolveReceived(e, now)
		if err != nil {
			return Mailbox{}, fmt.Errorf("email %s: %w", e.ID, err)
		}
		body := e.Body
		if strings.EqualFold(e.Format, "html") {
			body, err = flattenHTML(body)
			if err != nil {
				return Mailbox{}, fmt.Errorf("email %s: %w", e.ID, err)
			}
		}
		out.Emails = append(out.Emails, domain.EmailMessage{
			ID:       e.ID,
			From:     e.From,
			Subject:  e.Subject,
			Body:     body,
			Received: received,
			IsRead:   e.IsRead,
			Labels:   append([]string{}, e.Labels...),
		})
	}
	for _, ev := range raw.Events {
		if strings.TrimSpace(ev.ID) == "" {
			return Mailbox{}, fmt.Errorf("event without id")
		}
		if ev.End.Before(ev.Start) {
			return Mailbox{}, fmt.Errorf("event %s ends before it starts", ev.ID)
		}
		out.Events = append(out.Events, domain.CalendarEvent{
			ID:          ev.ID,
			Title:       ev.Title,
			Start:       ev.Start.UTC(),
			End:         ev.End.UTC(),
			Attendees:   append([]string{}, ev.Attendees...),
			Description: ev.Description,
			Location:    ev.Location,
			HangoutLink: ev.HangoutLink,
		})
	}
	return out, nil
}

func resolveReceived(e fileEmail, now time.Time) (time.Time, error) {
	if strings.TrimSpace(e.Received) != "" {
		t, err := time.Parse(time.RFC3339, e.Received)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid received: %w", err)
		}
		return t.UTC(), nil
	}
	if strings.TrimSpace(e.ReceivedOffset) == "" {
		return now.UTC(), nil
	}
	offset, err := time.ParseDuration(e.ReceivedOffset)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid receivedOffset: %w", err)
	}
	return now.Add(-offset).UTC(), nil
}

func flattenHTML(body string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return normalizeText(buf.String()), nil
}

func normalizeText(text string) string {
	text = strings.ToValidUTF8(text, "")
	return strings.Join(strings.Fields(text), " ")
}
