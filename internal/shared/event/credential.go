package event

import "time"

const CredentialCorruptedDestination string = "credential_corrupted"

// CredentialCorruptedMessage never carries the stored hash itself, only an
// HMAC reference that can be matched against the owner's records.
type CredentialCorruptedMessage struct {
	EventID    int64     `json:"event_id"`
	Reference  string    `json:"reference"`
	Reason     string    `json:"reason"`
	ClientID   string    `json:"client_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
