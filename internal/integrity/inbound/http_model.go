package inbound

import (
	"net/http"
	"time"
)

type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
	Size        int64  `json:"size"`
}

type VerifyResponse struct {
	Fingerprint string `json:"fingerprint"`
	Expected    string `json:"expected"`
	Match       bool   `json:"match"`
}

func (r VerifyResponse) Message() string {
	if r.Match {
		return "Document matches the expected fingerprint"
	}
	return "Document does not match the expected fingerprint"
}

type StoreResponse struct {
	Fingerprint  string `json:"fingerprint"`
	Size         int64  `json:"size"`
	Deduplicated bool   `json:"deduplicated"`
}

func (r StoreResponse) StatusCode() int {
	if r.Deduplicated {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (r StoreResponse) Message() string {
	if r.Deduplicated {
		return "Document already stored"
	}
	return "Document stored"
}

type DetailResponse struct {
	Fingerprint string    `json:"fingerprint"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StoredBy    string    `json:"stored_by,omitempty"`
	StoredAt    time.Time `json:"stored_at"`
}

type LinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuditResponse struct {
	Fingerprint string `json:"fingerprint"`
	Actual      string `json:"actual"`
	Size        int64  `json:"size"`
	Intact      bool   `json:"intact"`
}

func (r AuditResponse) Message() string {
	if r.Intact {
		return "Document is intact"
	}
	return "Document is corrupted"
}

type DeleteResponse struct{}

func (DeleteResponse) StatusCode() int {
	return http.StatusNoContent
}
