package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Response общий конверт ответа
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), Response{Success: false, Message: err.Error()})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// statusOf сопоставляет вид ошибки HTTP статусу
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindLockTimeout:
		return http.StatusServiceUnavailable
	case apperr.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
