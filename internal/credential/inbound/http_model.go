package inbound

type HashRequest struct {
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm"`
}

type HashResponse struct {
	Hash      string `json:"hash"`
	Algorithm string `json:"algorithm"`
}

type VerifyRequest struct {
	Secret string `json:"secret"`
	Hash   string `json:"hash"`
}

type VerifyResponse struct {
	Match             bool `json:"match"`
	NeedsRehash       bool `json:"needs_rehash"`
	RemainingAttempts *int `json:"remaining_attempts,omitempty"`
}

func (r VerifyResponse) Message() string {
	if r.Match {
		return "Credential matches"
	}
	return "Credential does not match"
}

type InspectRequest struct {
	Hash string `json:"hash"`
}

type InspectResponse struct {
	Algorithm   string `json:"algorithm"`
	Cost        int    `json:"cost,omitempty"`
	Memory      uint32 `json:"memory,omitempty"`
	Iterations  uint32 `json:"iterations,omitempty"`
	Parallelism uint8  `json:"parallelism,omitempty"`
	NeedsRehash bool   `json:"needs_rehash"`
}
