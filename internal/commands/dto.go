package commands

import (
	"time"

	"ROLLCALL-backend/internal/intent"
)

type CommandRequest struct {
	Transcript string `json:"transcript"`
	// Force skips the confirmation prompt (legacy resend contract).
	Force bool `json:"force"`
}

type QueryRequest struct {
	Transcript string `json:"transcript"`
}

type ConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

// Response is the envelope of every pipeline endpoint.
type Response struct {
	Status int `json:"-"`

	ConfirmationRequired bool           `json:"confirmationRequired,omitempty"`
	ConfirmationToken    string         `json:"confirmationToken,omitempty"`
	ExpiresAt            *time.Time     `json:"expiresAt,omitempty"`
	Intent               *intent.Intent `json:"intent,omitempty"`

	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
