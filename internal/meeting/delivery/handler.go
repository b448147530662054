package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"meetsync-backend/internal/meeting/usecase"

	"github.com/gin-gonic/gin"
)

// MeetingHandler handles meeting pipeline HTTP requests
type MeetingHandler struct {
	meetingUsecase usecase.MeetingUsecase
}

// NewMeetingHandler creates a new MeetingHandler
func NewMeetingHandler(meetingUsecase usecase.MeetingUsecase) *MeetingHandler {
	return &MeetingHandler{
		meetingUsecase: meetingUsecase,
	}
}

// ProcessBatch runs one pipeline pass for the authenticated user
// POST /api/meetings/process
func (h *MeetingHandler) ProcessBatch(c *gin.Context) {
	userID := c.GetString("userID")

	result, err := h.meetingUsecase.ProcessBatch(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrSourceNotConnected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No email source connected. Connect Google or IMAP first."})
			return
		}
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// PreviewThreads returns the grouped meeting emails without processing them
// GET /api/meetings/preview
func (h *MeetingHandler) PreviewThreads(c *gin.Context) {
	userID := c.GetString("userID")

	groups, err := h.meetingUsecase.PreviewThreads(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrSourceNotConnected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No email source connected. Connect Google or IMAP first."})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"total":  len(groups),
	})
}

// GetRuns lists past pipeline runs for the authenticated user
// GET /api/meetings/runs?limit=20&offset=0
func (h *MeetingHandler) GetRuns(c *gin.Context) {
	userID := c.GetString("userID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, total, err := h.meetingUsecase.GetRuns(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": total,
	})
}

// GetRunByID returns one past pipeline run
// GET /api/meetings/runs/:id
func (h *MeetingHandler) GetRunByID(c *gin.Context) {
	userID := c.GetString("userID")
	runID := c.Param("id")

	run, err := h.meetingUsecase.GetRunByID(userID, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}
