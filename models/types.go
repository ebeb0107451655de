// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "encoding/json"

// Assignment strategy names as they appear in campaign files
const (
	AssignmentTaskBased    = "task-based"
	AssignmentSingleStream = "single-stream"
	AssignmentDynamic      = "dynamic"
)

// Item response status values
const (
	StatusOK        = "ok"
	StatusCompleted = "completed"
)

// DefaultGoodbye is shown on completion when the campaign sets no instructions_goodbye
const DefaultGoodbye = "If someone asks you for a token of completion, show them: ${TOKEN}"

// Request types

type NextItemRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
}

type ItemAtRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	ItemI      *int   `json:"item_i" validate:"required"`
}

type LogResponseRequest struct {
	CampaignID string            `json:"campaign_id" validate:"required"`
	UserID     string            `json:"user_id" validate:"required"`
	ItemI      *int              `json:"item_i" validate:"required"`
	Payload    AnnotationPayload `json:"payload"`
}

type ResetTaskRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	Token      string `json:"token" validate:"required"`
}

type DashboardResultsRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	Token      string `json:"token" validate:"required"`
}

type DashboardDataRequest struct {
	CampaignID string  `json:"campaign_id" validate:"required"`
	Token      *string `json:"token"`
}

// AnnotationPayload is what the annotation form posts for one item.
// Annotation is kept raw so the log stores exactly what the client sent.
type AnnotationPayload struct {
	Annotation  json.RawMessage `json:"annotation" validate:"jsonvalue"`
	Comment     json.RawMessage `json:"comment,omitempty"`
	Actions     []Action        `json:"actions,omitempty"`
	Validations []bool          `json:"validations,omitempty"`
	Item        json.RawMessage `json:"item,omitempty"`
}

// Action is a timestamped UI event; only Time is interpreted by the server
type Action struct {
	Time  float64         `json:"time"`
	Extra json.RawMessage `json:"-"`
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var probe struct {
		Time *float64 `json:"time"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Time == nil {
		return ErrMissingActionTime
	}
	a.Time = *probe.Time
	a.Extra = append(json.RawMessage(nil), data...)
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.Extra) > 0 {
		return a.Extra, nil
	}
	return json.Marshal(struct {
		Time float64 `json:"time"`
	}{a.Time})
}

// Response types

// ItemResponse is returned by get-next-item and get-i-item.
// Status "ok" carries Info and Payload; "completed" carries Token and Goodbye.
type ItemResponse struct {
	Status          string          `json:"status"`
	Progress        Progress        `json:"progress"`
	Time            float64         `json:"time"`
	Info            map[string]any  `json:"info,omitempty"`
	Payload         Document        `json:"payload,omitempty"`
	PayloadExisting *ExistingAnswer `json:"payload_existing,omitempty"`
	Token           string          `json:"token,omitempty"`
	Goodbye         string          `json:"instructions_goodbye,omitempty"`
}

// ExistingAnswer lets the client pre-fill the form after a refresh
type ExistingAnswer struct {
	Annotation json.RawMessage `json:"annotation"`
	Comment    json.RawMessage `json:"comment,omitempty"`
}

// ModelScore is one row of the dashboard results table
type ModelScore struct {
	Model  string  `json:"model"`
	Score  float64 `json:"score"`
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Rank   int     `json:"rank"` // 1-indexed ranking
}

// DashboardUser is one annotator's row in the dashboard
type DashboardUser struct {
	Progress        Progress `json:"progress"`
	Time            float64  `json:"time"`
	TimeStart       *float64 `json:"time_start"`
	TimeEnd         *float64 `json:"time_end"`
	URL             string   `json:"url,omitempty"`
	TokenCorrect    *string  `json:"token_correct"`
	TokenIncorrect  *string  `json:"token_incorrect"`
	Validations     []bool   `json:"validations"`
	ThresholdPassed *bool    `json:"threshold_passed"`
}

type DashboardData struct {
	Data                map[string]DashboardUser `json:"data"`
	ValidationThreshold *Threshold               `json:"validation_threshold"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
