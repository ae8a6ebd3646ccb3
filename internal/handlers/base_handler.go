package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cfaprep/exam-service/internal/utils"
)

// SuccessResponse is the envelope for successful list/detail payloads that
// carry a message
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for every non-2xx payload
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the shared helpers every handler embeds
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest writes one structured line for the handler entry point
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Info(msg, args...)
}

// parseIDParam reads a positive integer path parameter. On failure it writes
// the 400 response and returns 0; callers must bail out on 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// currentUserID reads the authenticated user set by the auth middleware
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID.(string), true
}

// queryInt reads an integer query parameter with a fallback
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
