package uid

import "github.com/google/uuid"

// UUID generates time-ordered version 7 UUIDs for correlation and token ids.
type UUID struct {
	newV7 func() (uuid.UUID, error)
}

func NewUUID() *UUID {
	return &UUID{newV7: uuid.NewV7}
}

// Generate falls back to a random version 4 UUID when a version 7 one cannot
// be produced.
func (u *UUID) Generate() string {
	gen := u.newV7
	if gen == nil {
		gen = uuid.NewV7
	}

	if id, err := gen(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
