package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
)

// EventStore lists recorded order events
type EventStore interface {
	List(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]*domain.OrderEvent, error)
}

// HandleListEvents handles GET /v1/admin/events
func HandleListEvents(events EventStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		statusStr := c.Query("status")
		limitStr := c.DefaultQuery("limit", "50")
		offsetStr := c.DefaultQuery("offset", "0")

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 50
		}

		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			offset = 0
		}

		status := domain.SubmissionStatus(statusStr)
		if statusStr != "" && !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		list, err := events.List(c.Request.Context(), status, limit, offset)
		if err != nil {
			logger.Error("Failed to list order events", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		responses := make([]gin.H, len(list))
		for i, e := range list {
			responses[i] = gin.H{
				"id":                e.ID.String(),
				"session_id":        e.SessionID.String(),
				"product_handle":    e.ProductHandle,
				"variant_id":        e.VariantID,
				"quantity":          e.Quantity,
				"total":             e.Total,
				"commission":        e.Commission,
				"net_payable":       e.NetPayable,
				"status":            e.Status,
				"failure_kind":      e.FailureKind,
				"message":           e.Message,
				"phone_fingerprint": e.PhoneFingerprint,
				"pin_prefix":        e.PINPrefix,
				"created_at":        e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"events": responses,
			"limit":  limit,
			"offset": offset,
		})
	}
}
