package reconcile

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/config"
	"github.com/shelfmark/shelfmark/pkg/items"
	"github.com/shelfmark/shelfmark/pkg/series"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) {
	seriesService := series.NewService(db)
	itemService := items.NewService(db)

	h := &handler{
		seriesService: seriesService,
		reconciler:    NewReconciler(seriesService, itemService),
		sweepWorkers:  cfg.ReconcileWorkers,
	}

	e.GET("/validate", h.validateAll)
	e.GET("/series/:id/validate", h.validateSeries)
	e.POST("/reconcile", h.reconcileAll)
	e.POST("/series/:id/reconcile", h.reconcileSeries)
}
