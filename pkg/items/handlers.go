package items

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
)

type handler struct {
	itemService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListItemsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	items, total, err := h.itemService.ListOwnedItemsWithTotal(ctx, ListOwnedItemsOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		SeriesName: params.Series,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Items []*models.OwnedItem `json:"items"`
		Total int                 `json:"total"`
	}{items, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("OwnedItem")
	}

	item, err := h.itemService.RetrieveOwnedItem(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, item))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateItemPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	item := &models.OwnedItem{
		Title:      params.Title,
		Authors:    params.Authors,
		SeriesName: params.Series,
		Position:   params.Position,
		Notes:      params.Notes,
	}
	for _, e := range params.Editions {
		item.Editions = append(item.Editions, &models.Edition{
			ISBN:      e.ISBN,
			Format:    e.Format,
			Publisher: e.Publisher,
			IsPrimary: e.IsPrimary,
		})
	}

	if err := h.itemService.CreateOwnedItem(ctx, item); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, item))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("OwnedItem")
	}

	params := UpdateItemPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	item, err := h.itemService.RetrieveOwnedItem(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	var columns []string
	if params.Title != nil {
		item.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Authors != nil {
		item.Authors = params.Authors
		columns = append(columns, "authors")
	}
	if params.Series != nil {
		item.SeriesName = params.Series
		columns = append(columns, "series_name")
	}
	if params.Position != nil {
		item.Position = params.Position
		columns = append(columns, "position")
	}
	if params.Notes != nil {
		item.Notes = params.Notes
		columns = append(columns, "notes")
	}

	err = h.itemService.UpdateOwnedItem(ctx, item, UpdateOwnedItemOptions{Columns: columns})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, item))
}

func (h *handler) deleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("OwnedItem")
	}

	if err := h.itemService.DeleteOwnedItem(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// importCSV ingests a CSV of owned items from a multipart upload.
func (h *handler) importCSV(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errcodes.MalformedPayload()
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	result, err := h.itemService.ImportCSV(ctx, file)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
