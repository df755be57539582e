package model

import (
	"github.com/vishal-official/Email-Assistant/pkg/ai"
	"github.com/vishal-official/Email-Assistant/pkg/domain"
)

var briefingSchema = ai.Object(map[string]*ai.Schema{
	"summary": ai.String(),
	"meetings": ai.ArrayOf(ai.Object(map[string]*ai.Schema{
		"title":              ai.String(),
		"time":               ai.String(),
		"context":            ai.String(),
		"agenda":             ai.ArrayOf(ai.String()),
		"descriptionSummary": ai.String(),
		"preparation":        ai.String(),
	}, "title", "time", "context", "agenda", "descriptionSummary")),
	"urgentItems": ai.ArrayOf(ai.Object(map[string]*ai.Schema{
		"messageId": ai.String(),
		"title":     ai.String(),
		"from":      ai.String(),
		"reason":    ai.String(),
		"deadline":  ai.String(),
		"action":    ai.String(),
	}, "messageId", "title", "from", "reason", "action")),
	"actionRequiredItems": ai.ArrayOf(ai.Object(map[string]*ai.Schema{
		"messageId":   ai.String(),
		"title":       ai.String(),
		"from":        ai.String(),
		"description": ai.String(),
		"deadline":    ai.String(),
		"category": ai.String(
			string(domain.CategoryApproval),
			string(domain.CategoryQuestion),
			string(domain.CategoryReview),
			string(domain.CategoryConfirmation),
			string(domain.CategoryOther),
		),
	}, "messageId", "title", "from", "description", "category")),
	"pendingCalls": ai.ArrayOf(ai.Object(map[string]*ai.Schema{
		"person":         ai.String(),
		"topic":          ai.String(),
		"suggestedSlots": ai.ArrayOf(ai.String()),
	}, "person", "topic", "suggestedSlots")),
}, "summary", "meetings", "urgentItems", "actionRequiredItems", "pendingCalls")

var draftSchema = ai.Object(map[string]*ai.Schema{
	"to":      ai.String(),
	"subject": ai.String(),
	"body":    ai.String(),
}, "to", "subject", "body")
