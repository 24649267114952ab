package series

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/shelfmark/shelfmark/pkg/sortname"
)

type handler struct {
	seriesService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListSeriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	seriesList, total, err := h.seriesService.ListSeriesWithTotal(ctx, ListSeriesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Status: params.Status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Series []*models.Series `json:"series"`
		Total  int              `json:"total"`
	}{seriesList, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	series, err := h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series := &models.Series{
		Name:          params.Name,
		PrimaryAuthor: params.PrimaryAuthor,
		Total:         params.Total,
	}
	if params.Status != nil {
		series.Status = *params.Status
	}

	if err := h.seriesService.CreateSeries(ctx, series); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	params := UpdateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series, err := h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	var columns []string
	if params.Name != nil && *params.Name != series.Name {
		series.Name = *params.Name
		series.SortName = sortname.ForTitle(*params.Name)
		columns = append(columns, "name", "sort_name")
	}
	if params.PrimaryAuthor != nil {
		series.PrimaryAuthor = params.PrimaryAuthor
		columns = append(columns, "primary_author")
	}
	if params.Total != nil {
		series.Total = params.Total
		columns = append(columns, "total")
	}
	if params.Status != nil {
		series.Status = *params.Status
		columns = append(columns, "status")
	}
	if params.Description != nil {
		series.Description = params.Description
		columns = append(columns, "description")
	}
	if params.Tags != nil {
		series.Tags = params.Tags
		columns = append(columns, "tags")
	}

	err = h.seriesService.UpdateSeries(ctx, series, UpdateSeriesOptions{Columns: columns})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) deleteSeries(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	if err := h.seriesService.DeleteSeries(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) listVolumes(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	series, err := h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	volumes, err := h.seriesService.VolumesForSeries(ctx, series.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Volumes []*models.Volume `json:"volumes"`
	}{volumes}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// updateVolume applies user edits to a volume. A status set here is a manual
// pin: the reconciler will not overwrite it.
func (h *handler) updateVolume(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Volume")
	}

	params := UpdateVolumePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	volume, err := h.seriesService.RetrieveVolume(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	var columns []string
	if params.Title != nil {
		volume.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Position != nil {
		volume.Position = params.Position
		columns = append(columns, "position")
	}
	if params.Status != nil {
		volume.Status = *params.Status
		volume.StatusSource = models.StatusSourceManual
		columns = append(columns, "status", "status_source")
	}
	if params.Notes != nil {
		volume.Notes = params.Notes
		columns = append(columns, "notes")
	}

	err = h.seriesService.UpdateVolume(ctx, volume, UpdateVolumeOptions{Columns: columns})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, volume))
}
