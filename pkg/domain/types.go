package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

type ActionKind string

const (
	ActionCoordination ActionKind = "coordination"
	ActionReply        ActionKind = "reply"
	ActionApproval     ActionKind = "approval"
)

type ItemCategory string

const (
	CategoryApproval     ItemCategory = "approval"
	CategoryQuestion     ItemCategory = "question"
	CategoryReview       ItemCategory = "review"
	CategoryConfirmation ItemCategory = "confirmation"
	CategoryOther        ItemCategory = "other"
)

// Valid reports whether c is one of the known action item categories.
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryApproval, CategoryQuestion, CategoryReview, CategoryConfirmation, CategoryOther:
		return true
	}
	return false
}

type EmailMessage struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Received time.Time `json:"received"`
	IsRead   bool      `json:"isRead"`
	Labels   []string  `json:"labels"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	HangoutLink string    `json:"hangoutLink,omitempty"`
}

type Meeting struct {
	Title              string   `json:"title"`
	Time               string   `json:"time"`
	Context            string   `json:"context"`
	Agenda             []string `json:"agenda"`
	DescriptionSummary string   `json:"descriptionSummary"`
	Preparation        string   `json:"preparation,omitempty"`
}

type UrgentItem struct {
	MessageID string `json:"messageId"`
	Title     string `json:"title"`
	From      string `json:"from"`
	Reason    string `json:"reason"`
	Deadline  string `json:"deadline,omitempty"`
	Action    string `json:"action"`
}

type ActionItem struct {
	MessageID   string       `json:"messageId"`
	Title       string       `json:"title"`
	From        string       `json:"from"`
	Description string       `json:"description"`
	Deadline    string       `json:"deadline,omitempty"`
	Category    ItemCategory `json:"category"`
}

type PendingCall struct {
	Person         string   `json:"person"`
	Topic          string   `json:"topic"`
	SuggestedSlots []string `json:"suggestedSlots"`
}

// Briefing is the synthesized daily digest. It is always replaced as a whole.
type Briefing struct {
	Summary             string        `json:"summary"`
	Meetings            []Meeting     `json:"meetings"`
	UrgentItems         []UrgentItem  `json:"urgentItems"`
	ActionRequiredItems []ActionItem  `json:"actionRequiredItems"`
	PendingCalls        []PendingCall `json:"pendingCalls"`
}

// PendingCallFor returns the pending call whose person matches name exactly.
func (b *Briefing) PendingCallFor(name string) (PendingCall, bool) {
	if b == nil {
		return PendingCall{}, false
	}
	for _, call := range b.PendingCalls {
		if call.Person == name {
			return call, true
		}
	}
	return PendingCall{}, false
}

type EmailDraft struct {
	To         string     `json:"to"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	PersonName string     `json:"personName"`
	Slot       string     `json:"slot"`
	Type       ActionKind `json:"type"`
}

// MaxStyleSamples bounds the writing-style history.
const MaxStyleSamples = 5

type UserPreferences struct {
	WorkingHoursStart    string   `json:"workingHoursStart"`
	WorkingHoursEnd      string   `json:"workingHoursEnd"`
	Timezone             string   `json:"timezone"`
	VIPContacts          []string `json:"vipContacts"`
	AutoSchedule         bool     `json:"autoSchedule"`
	WritingStyleSamples  []string `json:"writingStyleSamples"`
	BriefingDeliveryTime string   `json:"briefingDeliveryTime"`
	BriefingEnabled      bool     `json:"briefingEnabled"`
}

// DefaultPreferences returns the preferences a new session starts with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		WorkingHoursStart:    "09:00",
		WorkingHoursEnd:      "18:00",
		Timezone:             "America/Los_Angeles",
		VIPContacts:          []string{"legal@acmecorp.com", "sarah.cfo@mycompany.com"},
		AutoSchedule:         false,
		WritingStyleSamples:  []string{},
		BriefingDeliveryTime: "07:00",
		BriefingEnabled:      true,
	}
}

// Clone returns a deep copy so callers never share slices with the store.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	out.VIPContacts = append([]string(nil), p.VIPContacts...)
	out.WritingStyleSamples = append([]string{}, p.WritingStyleSamples...)
	return out
}

// PreferencesPatch carries a partial preference update; nil fields are left alone.
type PreferencesPatch struct {
	WorkingHoursStart    *string   `json:"workingHoursStart,omitempty"`
	WorkingHoursEnd      *string   `json:"workingHoursEnd,omitempty"`
	Timezone             *string   `json:"timezone,omitempty"`
	VIPContacts          *[]string `json:"vipContacts,omitempty"`
	AutoSchedule         *bool     `json:"autoSchedule,omitempty"`
	WritingStyleSamples  *[]string `json:"writingStyleSamples,omitempty"`
	BriefingDeliveryTime *string   `json:"briefingDeliveryTime,omitempty"`
	BriefingEnabled      *bool     `json:"briefingEnabled,omitempty"`
}

type ConversationEntry struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Status    DeliveryStatus `json:"status,omitempty"`
}

// Turn is one prior exchange sent to the conversational endpoint.
// Role is either "user" or "model".
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
