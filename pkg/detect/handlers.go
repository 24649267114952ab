package detect

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	resolver *Resolver
}

// detect resolves a title (plus optional authors and declared series name)
// to a series identity. A null detection is a valid answer, not an error.
func (h *handler) detect(c echo.Context) error {
	ctx := c.Request().Context()

	params := DetectPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	detection, err := h.resolver.Resolve(ctx, params.Title, params.Authors, params.Series)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Detection *Detection `json:"detection"`
	}{detection}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
