package domain

import "encoding/json"

// ItemSuccess records one artifact that was scraped and removed from the queue.
type ItemSuccess struct {
	ID   string
	Name string
	Data json.RawMessage
}

// ItemFailure records one artifact whose scrape attempt was declined or errored.
type ItemFailure struct {
	ID    string
	Name  string
	Error string
}

// Report aggregates the outcome of a single pipeline run.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Successes []ItemSuccess
	Failures  []ItemFailure
}
