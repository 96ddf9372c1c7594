// Package server exposes the job feed over HTTP: per-provider reads, the
// import trigger and the paginated query.
package server

import "github.com/amishk599/jobfeed/internal/model"

// Response messages shared with API clients.
const (
	msgJobsFetched     = "Jobs fetched successfully"
	msgInvalidQuery    = "Invalid query parameters provided"
	msgNoMatchingJobs  = "No jobs found with the provided filters"
	msgFetchJobsFailed = "Failed to fetch jobs"
	msgNoProviderJobs  = "No jobs found"
	msgUnknownProvider = "Unknown provider"
	msgImportBusy      = "An import is already in progress. Please try again later."
	msgImportFailed    = "Failed to import jobs. Please try again later."

	statusError = "error"
)

// JobsResponse is the body of a successful GET /jobs.
type JobsResponse struct {
	Message string     `json:"message"`
	Data    model.Page `json:"data"`
}

// ImportResponse is the body of a successful POST /jobs/import.
type ImportResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
