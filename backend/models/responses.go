package models

import (
	"time"

	dbmodels "github.com/disgoorg/entry-bot/entrybot/database/models"
)

// ErrorResponse is the body of every JSON error, including rate limiting.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     APIError  `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func NewErrorResponse(code, message string, details map[string]string) ErrorResponse {
	return ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// CheckinRequest is the body of POST /api/checkin.
type CheckinRequest struct {
	Loc        string `json:"loc"`
	Passphrase string `json:"passphrase"`
}

// CheckinResponse is returned by POST /api/checkin for every outcome.
type CheckinResponse struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	AlreadyCheckedIn bool     `json:"already_checked_in,omitempty"`
	NeedPassphrase   bool     `json:"need_passphrase,omitempty"`
	VisitCount       int      `json:"visit_count,omitempty"`
	RoleGranted      bool     `json:"role_granted,omitempty"`
	Nickname         string   `json:"nickname,omitempty"`
	UserRoles        []string `json:"user_roles,omitempty"`
}

type StoresResponse struct {
	Stores []dbmodels.VenueSummary `json:"stores"`
}

type VisitRow struct {
	StoreName string `json:"store_name"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	VisitDate string `json:"visit_date"`
	VisitTime string `json:"visit_time"`
}

type VisitsResponse struct {
	Visits []VisitRow `json:"visits"`
}

type StatsResponse[T any] struct {
	Stats []T `json:"stats"`
}

// HealthResponse is served by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Commit  string `json:"commit,omitempty"`
}
