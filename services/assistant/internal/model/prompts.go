package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

const systemInstruction = `You are an AI email assistant with access to the user's Gmail, Google Calendar, and Google Drive context.
Your primary role is to act as a proactive, autonomous orchestrator.

Core Behaviors:
1. PROACTIVE BRIEFING: Analyze emails and calendar to find hidden connections.
2. URGENCY DETECTION: Flag items as URGENT only if they have deadlines within 24-48 hours.
3. ACTION EXTRACTION: Identify clear 'Action Required' items.
4. COORDINATION: Detect meeting requests and suggest optimal slots.
5. TONE MATCHING: Mimic provided 'Writing Samples' exactly for greetings, sign-offs, and formality.
6. DESCRIPTION SUMMARIZATION: Extract and summarize meeting descriptions into 1-2 sentences.

Tone: Professional, executive, and proactive.`

func briefingPrompt(today time.Time, emails []domain.EmailMessage, events []domain.CalendarEvent, prefs domain.UserPreferences) (string, error) {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("encode preferences: %w", err)
	}
	emailsJSON, err := json.Marshal(emails)
	if err != nil {
		return "", fmt.Errorf("encode emails: %w", err)
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("encode events: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("Analyze the following raw data and generate a structured daily briefing.\n\n")
	fmt.Fprintf(&sb, "TODAY'S DATE: %s\n", today.Format("1/2/2006"))
	fmt.Fprintf(&sb, "USER PREFERENCES: %s\n", prefsJSON)
	fmt.Fprintf(&sb, "EMAILS: %s\n", emailsJSON)
	fmt.Fprintf(&sb, "CALENDAR: %s\n\n", eventsJSON)
	sb.WriteString("Task:\n")
	sb.WriteString("1. Provide a 'summary' of the day.\n")
	sb.WriteString("2. Extract 'meetings' with 'descriptionSummary' (1-2 sentences).\n")
	sb.WriteString("3. Identify 'urgentItems' and 'actionRequiredItems'.\n")
	sb.WriteString("4. Suggest 'pendingCalls' slots.\n\n")
	sb.WriteString("Return the result in strictly valid JSON matching the defined schema.")
	return sb.String(), nil
}

func draftPrompt(personName, slot, topic string, styleSamples []string) string {
	return fmt.Sprintf("Draft a coordination email to %s for %q at %s.\nMimic these samples: %s",
		personName, topic, slot, strings.Join(styleSamples, " | "))
}
