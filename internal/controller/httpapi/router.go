// Package httpapi HTTP интерфейс операций расписания
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter регистрирует маршруты API. metrics может быть nil.
func NewRouter(h *Handler, jwtSecret string, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		respond(c, http.StatusOK, "ok", nil)
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api", AuthMiddleware(jwtSecret))
	{
		api.GET("/instances/available", h.AvailableInstances)
		api.GET("/templates", h.Templates)
		api.GET("/bookings/:id", h.Booking)

		api.POST("/bookings", h.Book)
		api.POST("/bookings/:id/cancel", h.Cancel)
		api.POST("/instances/:id/absences", h.ReportAbsence)
	}

	admin := api.Group("", RequirePrivileged())
	{
		admin.POST("/instances/generate", h.GenerateInstances)
		admin.POST("/cleanup/expired", h.PruneExpired)
		admin.POST("/cleanup/vacant", h.PruneExcessVacant)
	}

	return r
}
