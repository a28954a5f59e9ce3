package entities

import "time"

type SubmissionStatus string

const (
	SubmissionStatusOpen       SubmissionStatus = "open"
	SubmissionStatusInProgress SubmissionStatus = "in_progress"
	SubmissionStatusApproved   SubmissionStatus = "approved"
	SubmissionStatusDenied     SubmissionStatus = "denied"
	SubmissionStatusClosed     SubmissionStatus = "closed"
)

// Submission is one marketplace-side filing attempt. Created exactly once per
// successful filing call, updated by the status poller, never deleted.
type Submission struct {
	SubmissionID         string
	ClaimID              string
	ExternalCaseID       string
	ExternalSubmissionID string
	Status               SubmissionStatus
	ResolutionText       string
	ApprovedAmount       float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
