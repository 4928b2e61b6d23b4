package uid

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake_Generate(t *testing.T) {
	t.Parallel()

	// Arrange
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	// Act
	seen := make(map[int64]struct{}, 1000)
	var last int64
	for range 1000 {
		id := gen.Generate()

		// Assert
		if id <= last {
			t.Fatalf("Generate() = %d, not greater than %d", id, last)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		last = id
	}
}

func TestNewSnowflake_InvalidNode(t *testing.T) {
	t.Parallel()

	if _, err := NewSnowflake(5000); err == nil {
		t.Fatal("NewSnowflake(5000) error = nil, want error")
	}
}

func TestUUID_Generate(t *testing.T) {
	t.Parallel()

	var gen StringID = NewUUID()

	a, b := gen.Generate(), gen.Generate()
	if a == b {
		t.Fatal("Generate() returned the same value twice")
	}

	id, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("uuid.Parse() error = %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("version = %d, want 7", id.Version())
	}
}

func TestUUID_Generate_fallback(t *testing.T) {
	t.Parallel()

	gen := &UUID{newV7: func() (uuid.UUID, error) { return uuid.Nil, errors.New("clock unavailable") }}

	id, err := uuid.Parse(gen.Generate())
	if err != nil {
		t.Fatalf("uuid.Parse() error = %v", err)
	}
	if id.Version() != 4 {
		t.Fatalf("version = %d, want 4", id.Version())
	}
}
