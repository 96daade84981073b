package models

// GenerationRequest is the body of POST /api/generations. Image is an optional
// base64-encoded source photo; Prompt describes the portrait style.
type GenerationRequest struct {
	Prompt string `json:"prompt" validate:"required,min=3,max=2000"`
	Image  string `json:"image,omitempty"`
	Style  string `json:"style,omitempty"`
}

// GenerationResult carries the post-processed portrait back to the caller.
type GenerationResult struct {
	JobID          string `json:"jobId"`
	Image          string `json:"image"`
	QuotaRemaining int64  `json:"quotaRemaining"`
}
