package app

import "errors"

var (
	// ErrDraftPending indicates a draft is awaiting confirmation or cancellation.
	ErrDraftPending = errors.New("a draft is already pending confirmation")
	// ErrActionInProgress indicates a draft is being synthesized or sent.
	ErrActionInProgress = errors.New("another action is in progress")
	ErrNoPendingDraft   = errors.New("no pending draft")
	ErrEmptyMessage     = errors.New("message required")
	ErrChatInProgress   = errors.New("assistant is still replying")
	ErrUnknownAction    = errors.New("unknown action kind")
	ErrClosed           = errors.New("assistant closed")
)
