package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/utils"
	"github.com/alfanzaky/proofanchor/pkg/xresponse"
)

// AnchorHandler handles anchoring requests
type AnchorHandler struct {
	anchorUC domain.AnchorUsecase
}

// NewAnchorHandler creates a new anchor handler
func NewAnchorHandler(anchorUC domain.AnchorUsecase) *AnchorHandler {
	return &AnchorHandler{anchorUC: anchorUC}
}

// SubmitRequest represents a request to anchor a data hash
type SubmitRequest struct {
	DataHash      string `json:"data_hash" binding:"required"`
	SavedParlayID string `json:"saved_parlay_id"`
}

// EnqueueRequest represents a request to re-enqueue an existing record
type EnqueueRequest struct {
	SavedParlayID string `json:"saved_parlay_id"`
}

// RecordResponse represents a verification record
type RecordResponse struct {
	ID            string  `json:"id"`
	SavedParlayID *string `json:"saved_parlay_id,omitempty"`
	DataHash      string  `json:"data_hash"`
	Status        string  `json:"status"`
	LastError     *string `json:"last_error,omitempty"`
	TxDigest      *string `json:"tx_digest,omitempty"`
	ProofObjectID *string `json:"proof_object_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toRecordResponse(record *domain.VerificationRecord) RecordResponse {
	return RecordResponse{
		ID:            record.ID,
		SavedParlayID: record.SavedParlayID,
		DataHash:      record.DataHash,
		Status:        record.Status,
		LastError:     record.LastError,
		TxDigest:      record.TxDigest,
		ProofObjectID: record.ProofObjectID,
		CreatedAt:     utils.FormatTime(record.CreatedAt),
		UpdatedAt:     utils.FormatTime(record.UpdatedAt),
	}
}

// Submit creates a pending record and queues its verification job
func (h *AnchorHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xresponse.BadRequest(c, "Invalid request format")
		return
	}

	record, err := h.anchorUC.Submit(c.Request.Context(), req.SavedParlayID, req.DataHash)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDataHash) {
			xresponse.BadRequestWithCode(c, xresponse.ErrCodeInvalidDataHash, err.Error())
			return
		}
		logger.Error("Failed to submit anchor",
			logger.String("saved_parlay_id", req.SavedParlayID),
			logger.ErrorField(err),
		)
		xresponse.InternalServerError(c, "Failed to submit anchor")
		return
	}

	xresponse.Accepted(c, "Anchor queued", toRecordResponse(record))
}

// Get returns one verification record
func (h *AnchorHandler) Get(c *gin.Context) {
	record, err := h.anchorUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			xresponse.NotFound(c, "Verification record not found")
			return
		}
		logger.Error("Failed to get verification record",
			logger.String("record_id", c.Param("id")),
			logger.ErrorField(err),
		)
		xresponse.InternalServerError(c, "Failed to get verification record")
		return
	}

	xresponse.Success(c, "Verification record retrieved", toRecordResponse(record))
}

// Enqueue pushes a new job for a pending record
func (h *AnchorHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			xresponse.BadRequest(c, "Invalid request format")
			return
		}
	}

	job, err := h.anchorUC.Enqueue(c.Request.Context(), c.Param("id"), req.SavedParlayID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			xresponse.NotFound(c, "Verification record not found")
		case errors.Is(err, domain.ErrRecordTerminal):
			xresponse.BadRequestWithCode(c, xresponse.ErrCodeRecordTerminal, err.Error())
		default:
			logger.Error("Failed to enqueue verification job",
				logger.String("record_id", c.Param("id")),
				logger.ErrorField(err),
			)
			xresponse.InternalServerError(c, "Failed to enqueue verification job")
		}
		return
	}

	xresponse.Accepted(c, "Verification job queued", job)
}

// Stats reports queue depth and record counts
func (h *AnchorHandler) Stats(c *gin.Context) {
	stats, err := h.anchorUC.Stats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to collect stats", logger.ErrorField(err))
		xresponse.InternalServerError(c, "Failed to collect stats")
		return
	}

	xresponse.Success(c, "Stats retrieved", stats)
}
