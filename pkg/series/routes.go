package series

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	seriesService := NewService(db)

	h := &handler{
		seriesService: seriesService,
	}

	e.GET("/series", h.list)
	e.POST("/series", h.create)
	e.GET("/series/:id", h.retrieve)
	e.PATCH("/series/:id", h.update)
	e.DELETE("/series/:id", h.deleteSeries)
	e.GET("/series/:id/volumes", h.listVolumes)
	e.PATCH("/volumes/:id", h.updateVolume)
}
