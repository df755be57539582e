package domain

// ActionRequest is a user-initiated follow-up. Exactly one of the concrete
// request types below implements it per action kind.
type ActionRequest interface {
	Kind() ActionKind
	isActionRequest()
}

// CoordinationRequest asks for a draft proposing Slot to Person.
type CoordinationRequest struct {
	Person string `json:"person"`
	Slot   string `json:"slot"`
}

// ItemRef points at the briefing item an action responds to.
type ItemRef struct {
	MessageID   string `json:"messageId,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	From        string `json:"from,omitempty"`
}

// Label returns the title, or the description when there is no title.
func (r ItemRef) Label() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Description
}

type ReplyRequest struct {
	Item ItemRef `json:"item"`
}

type ApprovalRequest struct {
	Item ItemRef `json:"item"`
}

func (CoordinationRequest) Kind() ActionKind { return ActionCoordination }
func (ReplyRequest) Kind() ActionKind        { return ActionReply }
func (ApprovalRequest) Kind() ActionKind     { return ActionApproval }

func (CoordinationRequest) isActionRequest() {}
func (ReplyRequest) isActionRequest()        {}
func (ApprovalRequest) isActionRequest()     {}
