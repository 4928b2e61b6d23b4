package inbound

import (
	"github.com/shandysiswandi/goseal/internal/credential/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for credential hashing.
type HTTPEndpoint struct {
	uc uc
}

// Hash derives a storable hash from a secret.
// @Summary Hash secret
// @Description Hashes the secret with the requested algorithm, or the configured primary one.
// @Tags Credential
// @Accept json
// @Produce json
// @Param request body HashRequest true "Hash payload"
// @Success 200 {object} router.successResponse{data=HashResponse} "Stored hash"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Hashing capacity exhausted"
// @Router /api/v1/credential/hash [post]
func (h *HTTPEndpoint) Hash(r *router.Request) (any, error) {
	var req HashRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Hash(r.Context(), usecase.HashInput{
		Secret:    req.Secret,
		Algorithm: req.Algorithm,
	})
	if err != nil {
		return nil, err
	}

	return HashResponse{Hash: resp.Hash, Algorithm: resp.Algorithm}, nil
}

// Verify checks a secret against a stored hash.
// @Summary Verify secret
// @Description Compares the secret with the stored hash. Failed attempts are limited per client and address.
// @Tags Credential
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verification result"
// @Failure 422 {object} router.errorResponse "Validation error or corrupted stored hash"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Router /api/v1/credential/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Secret:   req.Secret,
		Hash:     req.Hash,
		ClientIP: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	out := VerifyResponse{Match: resp.Match, NeedsRehash: resp.NeedsRehash}
	if !resp.Match {
		out.RemainingAttempts = &resp.RemainingAttempts
	}

	return out, nil
}

// Inspect reports the parameters encoded in a stored hash.
// @Summary Inspect hash
// @Tags Credential
// @Accept json
// @Produce json
// @Param request body InspectRequest true "Inspect payload"
// @Success 200 {object} router.successResponse{data=InspectResponse} "Hash parameters"
// @Failure 422 {object} router.errorResponse "Corrupted stored hash"
// @Router /api/v1/credential/inspect [post]
func (h *HTTPEndpoint) Inspect(r *router.Request) (any, error) {
	var req InspectRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Inspect(r.Context(), usecase.InspectInput{Hash: req.Hash})
	if err != nil {
		return nil, err
	}

	return InspectResponse{
		Algorithm:   resp.Info.Algorithm.String(),
		Cost:        resp.Info.Cost,
		Memory:      resp.Info.Memory,
		Iterations:  resp.Info.Iterations,
		Parallelism: resp.Info.Parallelism,
		NeedsRehash: resp.NeedsRehash,
	}, nil
}
