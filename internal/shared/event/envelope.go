package event

// HeaderCorrelationID carries the originating request correlation id.
const HeaderCorrelationID string = "cID"

// Envelope wraps every published payload so brokers without native headers
// still deliver the correlation id.
type Envelope[T any] struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Data          T      `json:"data"`
}
