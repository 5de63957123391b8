package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/domain"
	"github.com/jafarshop/gopiorder/internal/flow"
	"github.com/jafarshop/gopiorder/internal/session"
	apperrors "github.com/jafarshop/gopiorder/pkg/errors"
)

// MountRequest is the listing a host page mounts the order flow for. The
// price and stock fields are only used when the catalog cannot be reached.
type MountRequest struct {
	Handle         string            `json:"handle" binding:"required"`
	VariantID      string            `json:"variant_id"`
	UnitPrice      int64             `json:"unit_price" binding:"min=0"`
	MaxStock       int               `json:"max_stock" binding:"min=0"`
	FarmerName     string            `json:"farmer_name"`
	FarmerLocation string            `json:"farmer_location"`
	GheeType       string            `json:"ghee_type"`
	Attribution    map[string]string `json:"attribution"`
}

// MountResponse carries the new session id and its first snapshot
type MountResponse struct {
	SessionID string        `json:"session_id"`
	Snapshot  flow.Snapshot `json:"snapshot"`
}

type QuantityRequest struct {
	Op    string `json:"op" binding:"required,oneof=increment decrement set"`
	Value string `json:"value"`
}

// FieldRequest edits a field, blurs it, or both. Value nil with blur only
// validates the current value.
type FieldRequest struct {
	Field domain.Field `json:"field" binding:"required"`
	Value *string      `json:"value"`
	Blur  bool         `json:"blur"`
}

// SubmitResponse is the outcome of one submit trigger
type SubmitResponse struct {
	Outcome  domain.SubmissionOutcome `json:"outcome"`
	Snapshot flow.Snapshot            `json:"snapshot"`
}

// HandleMountSession handles POST /v1/sessions
func HandleMountSession(sessions *session.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		ctrl, err := sessions.Mount(c.Request.Context(), domain.Listing{
			Handle:         req.Handle,
			VariantHint:    req.VariantID,
			UnitPrice:      req.UnitPrice,
			MaxStock:       req.MaxStock,
			FarmerName:     req.FarmerName,
			FarmerLocation: req.FarmerLocation,
			GheeType:       req.GheeType,
			Attribution:    req.Attribution,
		})
		if err != nil {
			if errors.Is(err, session.ErrNoVariant) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			logger.Error("Failed to mount session", zap.String("handle", req.Handle), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, MountResponse{
			SessionID: ctrl.ID().String(),
			Snapshot:  ctrl.Snapshot(),
		})
	}
}

// HandleGetSession handles GET /v1/sessions/:id
func HandleGetSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, ctrl.Snapshot())
	}
}

// HandleCloseSession handles DELETE /v1/sessions/:id
func HandleCloseSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseSessionID(c)
		if !ok {
			return
		}
		if err := sessions.Close(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleQuantity handles POST /v1/sessions/:id/quantity
func HandleQuantity(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}

		var req QuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		trigger := flow.Trigger{Value: req.Value}
		switch req.Op {
		case "increment":
			trigger.Event = flow.EventIncrement
		case "decrement":
			trigger.Event = flow.EventDecrement
		default:
			trigger.Event = flow.EventSetQuantity
		}

		res, err := ctrl.Dispatch(c.Request.Context(), trigger)
		if err != nil {
			writeDispatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, res.Snapshot)
	}
}

// HandleField handles POST /v1/sessions/:id/fields
func HandleField(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}

		var req FieldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}
		if !req.Field.IsValid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown field"})
			return
		}
		if req.Value == nil && !req.Blur {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "value or blur is required"})
			return
		}

		var (
			res flow.Result
			err error
		)
		if req.Value != nil {
			res, err = ctrl.Dispatch(c.Request.Context(), flow.Trigger{
				Event: flow.EventEditField,
				Field: req.Field,
				Value: *req.Value,
			})
		}
		if err == nil && req.Blur {
			res, err = ctrl.Dispatch(c.Request.Context(), flow.Trigger{
				Event: flow.EventBlurField,
				Field: req.Field,
			})
		}
		if err != nil {
			writeDispatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, res.Snapshot)
	}
}

// HandleSubmit handles POST /v1/sessions/:id/submit. A trigger that arrives
// while another attempt is in flight gets 409 and changes nothing.
func HandleSubmit(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}

		res, err := ctrl.Dispatch(c.Request.Context(), flow.Trigger{Event: flow.EventSubmit})
		if err != nil {
			writeDispatchError(c, err)
			return
		}

		status := http.StatusOK
		if res.Outcome.Ignored {
			status = http.StatusConflict
		}
		c.JSON(status, SubmitResponse{
			Outcome:  *res.Outcome,
			Snapshot: res.Snapshot,
		})
	}
}

// HandleRetry handles POST /v1/sessions/:id/retry
func HandleRetry(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}

		res, err := ctrl.Dispatch(c.Request.Context(), flow.Trigger{Event: flow.EventRetry})
		if err != nil {
			writeDispatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, res.Snapshot)
	}
}

// HandleSessionEvents handles GET /v1/sessions/:id/events, streaming one
// server-sent "snapshot" event per state change until the client leaves or
// the session is closed.
func HandleSessionEvents(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := lookupSession(c, sessions)
		if !ok {
			return
		}

		updates, cancel := ctrl.Subscribe()
		defer cancel()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case snap, open := <-updates:
				if !open {
					return false
				}
				c.SSEvent("snapshot", snap)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func lookupSession(c *gin.Context, sessions *session.Manager) (*flow.Controller, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}
	ctrl, err := sessions.Get(id)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return ctrl, true
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, flow.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, flow.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
