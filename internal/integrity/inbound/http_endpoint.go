package inbound

import (
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes HTTP handlers for document fingerprinting and storage.
type HTTPEndpoint struct {
	uc uc
}

func closePart(r *router.Request, file interface{ Close() error }) {
	if err := file.Close(); err != nil {
		slog.WarnContext(r.Context(), "failed to close multipart file", "error", err)
	}
}

// Fingerprint computes the fingerprint of an uploaded document.
// @Summary Fingerprint document
// @Description Streams the multipart "file" field through SHA-256 and returns its lowercase hex digest.
// @Tags Integrity
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 200 {object} router.successResponse{data=FingerprintResponse} "Fingerprint result"
// @Failure 400 {object} router.errorResponse "Invalid multipart body"
// @Failure 413 {object} router.errorResponse "Document too large"
// @Router /api/v1/integrity/fingerprint [post]
func (h *HTTPEndpoint) Fingerprint(r *router.Request) (any, error) {
	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer closePart(r, file)

	resp, err := h.uc.Fingerprint(r.Context(), usecase.FingerprintInput{File: file})
	if err != nil {
		return nil, err
	}

	return FingerprintResponse{Fingerprint: resp.Fingerprint, Size: resp.Size}, nil
}

// Verify checks an uploaded document against an expected fingerprint.
// @Summary Verify document
// @Description Fingerprints the multipart "file" field and compares it in constant time with the "fingerprint" query value.
// @Tags Integrity
// @Accept multipart/form-data
// @Produce json
// @Param fingerprint query string true "Expected fingerprint"
// @Param file formData file true "Document"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verification result"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/integrity/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer closePart(r, file)

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		File:     file,
		Expected: r.GetQuery("fingerprint"),
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		Fingerprint: resp.Fingerprint,
		Expected:    resp.Expected,
		Match:       resp.Match,
	}, nil
}

// Store saves an uploaded document under its fingerprint.
// @Summary Store document
// @Description Stores the multipart "file" field content-addressed. Storing the same bytes twice is deduplicated.
// @Tags Integrity
// @Accept multipart/form-data
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param file formData file true "Document"
// @Success 201 {object} router.successResponse{data=StoreResponse} "Document stored"
// @Success 200 {object} router.successResponse{data=StoreResponse} "Document already stored"
// @Failure 409 {object} router.errorResponse "Idempotency key still in progress"
// @Failure 413 {object} router.errorResponse "Document too large"
// @Router /api/v1/integrity/documents [post]
func (h *HTTPEndpoint) Store(r *router.Request) (any, error) {
	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer closePart(r, file)

	resp, err := h.uc.Store(r.Context(), usecase.StoreInput{
		File:           file,
		ContentType:    file.Header.Get("Content-Type"),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
	})
	if err != nil {
		return nil, err
	}

	return StoreResponse{
		Fingerprint:  resp.Fingerprint,
		Size:         resp.Size,
		Deduplicated: resp.Deduplicated,
	}, nil
}

// Detail returns the metadata of a stored document.
// @Summary Document detail
// @Tags Integrity
// @Produce json
// @Param fingerprint path string true "Fingerprint"
// @Success 200 {object} router.successResponse{data=DetailResponse} "Document metadata"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Router /api/v1/integrity/documents/{fingerprint} [get]
func (h *HTTPEndpoint) Detail(r *router.Request) (any, error) {
	resp, err := h.uc.Detail(r.Context(), usecase.DetailInput{Fingerprint: r.GetParam("fingerprint")})
	if err != nil {
		return nil, err
	}

	return DetailResponse{
		Fingerprint: resp.Fingerprint,
		Size:        resp.Size,
		ContentType: resp.ContentType,
		StoredBy:    resp.StoredBy,
		StoredAt:    resp.StoredAt,
	}, nil
}

// Link returns a time-limited download URL.
// @Summary Document download link
// @Tags Integrity
// @Produce json
// @Param fingerprint path string true "Fingerprint"
// @Success 200 {object} router.successResponse{data=LinkResponse} "Signed URL"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Failure 503 {object} router.errorResponse "Signing not configured"
// @Router /api/v1/integrity/documents/{fingerprint}/link [get]
func (h *HTTPEndpoint) Link(r *router.Request) (any, error) {
	resp, err := h.uc.Link(r.Context(), usecase.LinkInput{Fingerprint: r.GetParam("fingerprint")})
	if err != nil {
		return nil, err
	}

	return LinkResponse{URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}

// Audit re-fingerprints a stored document.
// @Summary Audit document
// @Tags Integrity
// @Produce json
// @Param fingerprint path string true "Fingerprint"
// @Success 200 {object} router.successResponse{data=AuditResponse} "Audit result"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Router /api/v1/integrity/documents/{fingerprint}/audit [post]
func (h *HTTPEndpoint) Audit(r *router.Request) (any, error) {
	resp, err := h.uc.Audit(r.Context(), usecase.AuditInput{Fingerprint: r.GetParam("fingerprint")})
	if err != nil {
		return nil, err
	}

	return AuditResponse{
		Fingerprint: resp.Fingerprint,
		Actual:      resp.Actual,
		Size:        resp.Size,
		Intact:      resp.Intact,
	}, nil
}

// Delete removes a stored document.
// @Summary Delete document
// @Tags Integrity
// @Param fingerprint path string true "Fingerprint"
// @Success 204 "Deleted"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Router /api/v1/integrity/documents/{fingerprint} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	if err := h.uc.Delete(r.Context(), usecase.DeleteInput{Fingerprint: r.GetParam("fingerprint")}); err != nil {
		return nil, err
	}

	return DeleteResponse{}, nil
}
