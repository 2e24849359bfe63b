package dto

import (
	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the uniform success envelope for mutations without a
// dedicated body.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RequestResponse decorates a request with its derived overall status.
// The status is recomputed on every read and never stored.
type RequestResponse struct {
	*models.Request
	OverallStatus workflow.Status `json:"overall_status"`
}

// NewRequestResponse builds the response view of a request.
func NewRequestResponse(r *models.Request) *RequestResponse {
	return &RequestResponse{
		Request:       r,
		OverallStatus: r.OverallStatus(),
	}
}

// NewRequestListResponse builds response views for a list of requests.
func NewRequestListResponse(requests []models.Request) []*RequestResponse {
	out := make([]*RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewRequestResponse(&requests[i]))
	}
	return out
}

// LevelDetail is one row of the per-level status view.
type LevelDetail struct {
	Level      string              `json:"level"`
	State      workflow.LevelState `json:"state"`
	Actionable bool                `json:"actionable"`
}

// RequestStatusDetailResponse is the full per-level breakdown of a request.
type RequestStatusDetailResponse struct {
	RequestID     uuid.UUID       `json:"request_id"`
	OverallStatus workflow.Status `json:"overall_status"`
	CanEdit       bool            `json:"can_edit"`
	CanConfirm    bool            `json:"can_confirm_delivery"`
	Levels        []LevelDetail   `json:"levels"`
}

// NewRequestStatusDetail builds the per-level status view.
func NewRequestStatusDetail(r *models.Request) *RequestStatusDetailResponse {
	chain := r.Chain()
	levels := make([]LevelDetail, 0, workflow.LevelCount)
	for _, l := range workflow.Levels() {
		levels = append(levels, LevelDetail{
			Level:      l.String(),
			State:      chain[l],
			Actionable: chain.CanAct(l),
		})
	}
	return &RequestStatusDetailResponse{
		RequestID:     r.ID,
		OverallStatus: chain.Overall(),
		CanEdit:       chain.CanEditOrDelete(),
		CanConfirm:    chain.CanConfirmDelivery(),
		Levels:        levels,
	}
}

// BulkUpdateItemResult is the outcome of one request within a bulk update.
type BulkUpdateItemResult struct {
	RequestID uuid.UUID `json:"request_id"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}

// BulkUpdateResponse aggregates per-item results of a bulk status update.
type BulkUpdateResponse struct {
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []BulkUpdateItemResult `json:"results"`
}

// EvidenceUploadResponse returns the stored path of an uploaded file.
type EvidenceUploadResponse struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}
