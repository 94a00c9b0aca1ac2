package domain

import "errors"

// Queue errors
var (
	// ErrNotFound indicates no artifact matches the requested id.
	ErrNotFound = errors.New("compliance artifact not found")

	// ErrStoreUnavailable indicates the persistence layer failed.
	ErrStoreUnavailable = errors.New("artifact store unavailable")

	// ErrScrapeRejected indicates the scrape service declined the request.
	ErrScrapeRejected = errors.New("scrape rejected")
)

// ScrapeRejectedError carries the decline message reported by the scrape
// service. Error() returns the message verbatim so it can be surfaced in
// run reports unchanged.
type ScrapeRejectedError struct {
	Message string
}

func (e *ScrapeRejectedError) Error() string {
	return e.Message
}

func (e *ScrapeRejectedError) Unwrap() error {
	return ErrScrapeRejected
}
