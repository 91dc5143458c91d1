package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/service"
)

type RatingHandler struct {
	ratingService *service.RatingService
}

func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

// GetMyRating returns the caller's rating record, creating the default
// record on first sight.
func (h *RatingHandler) GetMyRating(c *gin.Context) {
	playerID := c.GetString("playerId")

	record, err := h.ratingService.GetOrCreate(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load rating",
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetRating returns any player's rating record.
func (h *RatingHandler) GetRating(c *gin.Context) {
	playerID := c.Param("playerId")

	record, err := h.ratingService.RecordFor(playerID)
	if err != nil {
		if errors.Is(err, service.ErrRatingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Player has no rating record",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load rating",
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetLeaderboard returns one page of players sorted by rating.
func (h *RatingHandler) GetLeaderboard(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	records, total, err := h.ratingService.Leaderboard(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": records,
		"page":        page,
		"pageSize":    pageSize,
		"total":       total,
	})
}

// PreviewDelta shows the caller's possible rating changes against a
// hypothetical opponent rating.
func (h *RatingHandler) PreviewDelta(c *gin.Context) {
	playerID := c.GetString("playerId")

	opponentRating, err := strconv.Atoi(c.Query("opponentRating"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "opponentRating query parameter required",
		})
		return
	}

	record, err := h.ratingService.GetOrCreate(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load rating",
		})
		return
	}

	preview := h.ratingService.Preview(record.Rating, opponentRating, record.TotalMatches)
	c.JSON(http.StatusOK, preview)
}
