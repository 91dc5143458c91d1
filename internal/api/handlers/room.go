package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/game"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/repository"
)

type RoomHandler struct {
	manager  *game.Manager
	roomRepo *repository.RoomRepository
}

func NewRoomHandler(manager *game.Manager, roomRepo *repository.RoomRepository) *RoomHandler {
	return &RoomHandler{
		manager:  manager,
		roomRepo: roomRepo,
	}
}

// GetRoom returns the room's current document: the live snapshot for
// resident rooms, the stored document for evicted ones.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	room, err := h.manager.Room(roomID)
	if err == nil {
		c.JSON(http.StatusOK, room.Doc())
		return
	}
	if !errors.Is(err, game.ErrRoomNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load room",
		})
		return
	}

	doc, err := h.roomRepo.FindByID(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load room",
		})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Room not found",
		})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetMatchTypes lists the playable match type catalog.
func (h *RoomHandler) GetMatchTypes(c *gin.Context) {
	types := make([]gin.H, 0, len(models.MatchTypes))
	for _, mt := range models.MatchTypes {
		types = append(types, gin.H{
			"name":        mt.Name,
			"boardSize":   mt.BoardSize,
			"timeLimitMs": mt.TimeLimitMs(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"matchTypes": types})
}

// GetMyMatches returns the caller's recently finished matches.
func (h *RoomHandler) GetMyMatches(c *gin.Context) {
	playerID := c.GetString("playerId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	docs, err := h.roomRepo.RecentFinished(playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load match history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": docs,
		"total":   len(docs),
	})
}
