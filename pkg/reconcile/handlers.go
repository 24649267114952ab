package reconcile

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/series"
)

type handler struct {
	seriesService *series.Service
	reconciler    *Reconciler
	sweepWorkers  int
}

func (h *handler) seriesName(c echo.Context) (string, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return "", errcodes.NotFound("Series")
	}
	s, err := h.seriesService.RetrieveSeries(c.Request().Context(), series.RetrieveSeriesOptions{ID: &id})
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

func (h *handler) validateSeries(c echo.Context) error {
	name, err := h.seriesName(c)
	if err != nil {
		return errors.WithStack(err)
	}

	report, err := h.reconciler.ValidateSeries(c.Request().Context(), name)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, report))
}

func (h *handler) validateAll(c echo.Context) error {
	reports, err := h.reconciler.ValidateAll(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Reports map[string]*Report `json:"reports"`
	}{reports}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) reconcileSeries(c echo.Context) error {
	name, err := h.seriesName(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := ReconcileQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	apply := params.Apply == nil || *params.Apply

	result, err := h.reconciler.Reconcile(c.Request().Context(), name, apply)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) reconcileAll(c echo.Context) error {
	result, err := h.reconciler.ReconcileAll(c.Request().Context(), h.sweepWorkers)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
