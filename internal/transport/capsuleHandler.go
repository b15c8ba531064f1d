package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
	"github.com/rahul3002/Time-Travel-Booking/internal/service"
)

// BatchTrigger fires the daily batch outside its regular cadence.
type BatchTrigger interface {
	RunNow() error
}

type CapsuleHandler struct {
	capsuleService service.CapsuleService
	batchTrigger   BatchTrigger
}

func NewCapsuleHandler(capsuleService service.CapsuleService, batchTrigger BatchTrigger) *CapsuleHandler {
	return &CapsuleHandler{
		capsuleService: capsuleService,
		batchTrigger:   batchTrigger,
	}
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *CapsuleHandler) CreateCapsule(c *gin.Context) {
	var req service.CreateCapsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	capsule, err := h.capsuleService.CreateCapsule(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, entity.ErrDeliveryDateTooFar) ||
			errors.Is(err, entity.ErrEmptyMessage) ||
			errors.Is(err, entity.ErrInvalidPriority) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, capsule)
}

func (h *CapsuleHandler) GetUserCapsules(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user id is required"})
		return
	}

	capsules, err := h.capsuleService.GetCapsulesByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, capsules)
}

func (h *CapsuleHandler) GetCapsule(c *gin.Context) {
	id := c.Param("id")

	capsule, err := h.capsuleService.GetCapsule(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrCapsuleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "capsule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, capsule)
}

// RunDailyBatch запускает дневную обработку капсул вручную
func (h *CapsuleHandler) RunDailyBatch(c *gin.Context) {
	if err := h.batchTrigger.RunNow(); err != nil {
		if errors.Is(err, entity.ErrBatchRunning) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "batch run already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "daily batch started"})
}

func (h *CapsuleHandler) GetAllCapsules(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		capsules, err := h.capsuleService.GetCapsulesByStatus(c.Request.Context(), entity.CapsuleStatus(status))
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, capsules)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	capsules, err := h.capsuleService.GetRecentCapsules(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, capsules)
}
