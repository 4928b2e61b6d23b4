package instrument

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Redacted replaces every masked value.
const Redacted = "***"

// storedHashPrefixes identify credential hashes, which are redacted wherever
// they appear regardless of the key they are logged under.
var storedHashPrefixes = []string{"$2a$", "$2b$", "$2y$", "$argon2id$"}

// Masker redacts configured keys from log attributes, JSON payloads and
// HTTP headers. Keys match case-insensitively.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker over fields. Blank entries are ignored.
func NewMasker(fields []string) *Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return &Masker{keys: keys}
}

// Masks reports whether values under key are redacted.
func (m *Masker) Masks(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value walks decoded JSON-like data and redacts masked keys and stored
// credential hashes.
func (m *Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Masks(k) {
				out[k] = Redacted
				continue
			}
			out[k] = m.Value(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = inner
		}
		return m.Value(out)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.Value(inner)
		}
		return out
	case string:
		if looksLikeStoredHash(val) {
			return Redacted
		}
		return val
	default:
		return v
	}
}

// JSON redacts a JSON document. ok is false when payload is not JSON.
func (m *Masker) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}

	out, err := json.Marshal(m.Value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Header returns a copy of h with masked header values redacted.
func (m *Masker) Header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if m.Masks(k) {
			out.Set(k, Redacted)
		}
	}
	return out
}

func looksLikeStoredHash(s string) bool {
	for _, p := range storedHashPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
