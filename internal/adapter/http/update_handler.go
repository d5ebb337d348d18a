package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lintv8/Mybot/internal/usecase"
)

var updatesProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mybot_updates_total",
		Help: "Inbound transport updates processed, by kind",
	},
	[]string{"kind"},
)

// UpdateHandler is the transport boundary: the bridge posts one decoded
// event, the core answers with the outbound batch to render.
type UpdateHandler struct {
	dispatch *usecase.Dispatcher
}

func NewUpdateHandler(dispatch *usecase.Dispatcher) *UpdateHandler {
	return &UpdateHandler{dispatch: dispatch}
}

type updateReq struct {
	UserID  string `json:"userId" binding:"required"`
	Name    string `json:"name"`
	Kind    string `json:"kind" binding:"required,oneof=command button text"`
	Payload string `json:"payload"`
}

type updateResp struct {
	Messages []usecase.OutboundMessage `json:"messages"`
}

// HandleUpdate translates the request into a core event.
func (h *UpdateHandler) HandleUpdate(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	updatesProcessed.WithLabelValues(req.Kind).Inc()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	msgs := h.dispatch.Handle(ctx, usecase.Event{
		UserID:  req.UserID,
		Name:    req.Name,
		Kind:    usecase.EventKind(req.Kind),
		Payload: req.Payload,
	})
	c.JSON(http.StatusOK, updateResp{Messages: msgs})
}
