package handler

// ops.go serves the JSON ops API.  Routes are mounted under /v1/ops behind
// JWTAuth, RequireRole("OPERATOR") and the token bucket, so handlers can
// rely on middleware.OperatorID being set.

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-bot/internal/middleware"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/service"
)

// ParticipantCounter counts registered participants.
type ParticipantCounter interface {
	Count(ctx context.Context) (int, error)
}

// OpsHandler groups the ops API endpoints.
type OpsHandler struct {
	Reservations service.ReservationLedger
	Participants ParticipantCounter
	Broadcasts   BroadcastScheduler
}

// NewOpsHandler constructs an OpsHandler.  All dependencies must be non-nil.
func NewOpsHandler(res service.ReservationLedger, participants ParticipantCounter, broadcasts BroadcastScheduler) *OpsHandler {
	if res == nil || participants == nil || broadcasts == nil {
		panic("nil dependency passed to NewOpsHandler")
	}
	return &OpsHandler{Reservations: res, Participants: participants, Broadcasts: broadcasts}
}

// ListReservations handles GET /v1/ops/reservations.  The optional status
// query parameter filters by New, Confirmed or Rejected.  Rows come back in
// storage order.
func (h *OpsHandler) ListReservations(c echo.Context) error {
	status := model.ReservationStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	rows, err := h.Reservations.All(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	items := make([]model.Reservation, 0, len(rows))
	for _, r := range rows {
		if status == "" || r.Status == status {
			items = append(items, r)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"count": len(items),
	})
}

// Summary handles GET /v1/ops/summary.
func (h *OpsHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	rows, err := h.Reservations.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	participants, err := h.Participants.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count participants"})
	}
	counts := map[model.ReservationStatus]int{}
	tickets := 0
	for _, r := range rows {
		counts[r.Status]++
		if r.Status == model.ReservationConfirmed {
			tickets += r.TicketCount
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": echo.Map{
			"total":     len(rows),
			"new":       counts[model.ReservationNew],
			"confirmed": counts[model.ReservationConfirmed],
			"rejected":  counts[model.ReservationRejected],
		},
		"confirmed_tickets": tickets,
		"participants":      participants,
	})
}

type broadcastRequest struct {
	Text string `json:"text"`
}

// Broadcast handles POST /v1/ops/broadcast.  The calling operator receives
// the report in chat.
func (h *OpsHandler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
	}
	operatorID, ok := middleware.OperatorID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Broadcasts.Schedule(c.Request().Context(), req.Text, operatorID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to schedule broadcast"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "scheduled"})
}
