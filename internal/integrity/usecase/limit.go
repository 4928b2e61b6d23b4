package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

var errPayloadTooLarge = errors.New("payload exceeds max size")

type maxBytesReader struct {
	r     io.Reader
	max   int64
	read  int64
	buf   [1]byte
	ended bool
}

func (s *Usecase) limit(r io.Reader) io.Reader {
	return &maxBytesReader{r: r, max: s.maxSize()}
}

// Read fails with errPayloadTooLarge as soon as one byte beyond max is seen,
// so a payload of exactly max bytes is accepted.
func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.ended {
		return 0, errPayloadTooLarge
	}

	if m.read >= m.max {
		n, err := m.r.Read(m.buf[:])
		if n > 0 {
			m.ended = true
			return 0, errPayloadTooLarge
		}
		return 0, err
	}

	if remaining := m.max - m.read; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := m.r.Read(p)
	m.read += int64(n)
	return n, err
}

func readError(ctx context.Context, err error, maxSize int64) error {
	if errors.Is(err, errPayloadTooLarge) {
		slog.WarnContext(ctx, "document rejected", "reason", "too large", "max_size_bytes", maxSize)
		return goerror.NewBusiness("Document exceeds the maximum size", goerror.CodePayloadTooLarge)
	}

	slog.WarnContext(ctx, "failed to read uploaded document", "error", err)
	return goerror.NewInvalidFormat("Failed to read document")
}
