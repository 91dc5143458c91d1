package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/service"
)

type QueueHandler struct {
	queueService *service.QueueService
}

func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
	}
}

// GetMyStatus returns the caller's queue position, when queued.
func (h *QueueHandler) GetMyStatus(c *gin.Context) {
	playerID := c.GetString("playerId")

	status, err := h.queueService.StatusFor(playerID)
	if err != nil {
		if errors.Is(err, service.ErrNotInQueue) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Not in queue",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get queue status",
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetDepth returns the number of waiting players per match type.
func (h *QueueHandler) GetDepth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"queues": h.queueService.Depth(),
	})
}
