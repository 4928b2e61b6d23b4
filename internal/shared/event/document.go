package event

import "time"

const (
	DocumentStoredDestination    string = "document_stored"
	DocumentCorruptedDestination string = "document_corrupted"
)

type DocumentStoredMessage struct {
	EventID      int64     `json:"event_id"`
	Fingerprint  string    `json:"fingerprint"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	Deduplicated bool      `json:"deduplicated"`
	ClientID     string    `json:"client_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type DocumentCorruptedMessage struct {
	EventID     int64     `json:"event_id"`
	Fingerprint string    `json:"fingerprint"`
	Actual      string    `json:"actual"`
	ClientID    string    `json:"client_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}
