package domain

import "time"

// Status enumerates review states of a queued compliance artifact.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	// StatusDisapproved never persists: disapproval deletes the record,
	// the value exists only to close the transition graph.
	StatusDisapproved Status = "disapproved"
)

// Artifact is a compliance-document reference awaiting human review and
// eventual automated retrieval.
type Artifact struct {
	ID             string
	NameOrigin     string
	NameTranslated string
	URL            string
	Status         Status
	CreatedAt      time.Time
}

// DisplayName picks the name shown to reviewers and sent to the scrape
// service: the translated name when present, the original otherwise.
func (a Artifact) DisplayName() string {
	if a.NameTranslated != "" {
		return a.NameTranslated
	}
	return a.NameOrigin
}
