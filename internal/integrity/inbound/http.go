package inbound

import (
	"context"

	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
)

type uc interface {
	Fingerprint(ctx context.Context, in usecase.FingerprintInput) (*usecase.FingerprintOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)

	Store(ctx context.Context, in usecase.StoreInput) (*usecase.StoreOutput, error)
	Detail(ctx context.Context, in usecase.DetailInput) (*usecase.DetailOutput, error)
	Link(ctx context.Context, in usecase.LinkInput) (*usecase.LinkOutput, error)
	Audit(ctx context.Context, in usecase.AuditInput) (*usecase.AuditOutput, error)
	Delete(ctx context.Context, in usecase.DeleteInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Stateless
	r.POST("/api/v1/integrity/fingerprint", end.Fingerprint)
	r.POST("/api/v1/integrity/verify", end.Verify)

	// Content-addressed documents
	r.POST("/api/v1/integrity/documents", end.Store)
	r.GET("/api/v1/integrity/documents/:fingerprint", end.Detail)
	r.GET("/api/v1/integrity/documents/:fingerprint/link", end.Link)
	r.POST("/api/v1/integrity/documents/:fingerprint/audit", end.Audit)
	r.DELETE("/api/v1/integrity/documents/:fingerprint", end.Delete)
}
