package detect

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfmark/shelfmark/pkg/metadata"
	"github.com/shelfmark/shelfmark/pkg/titlepattern"
)

func RegisterRoutes(e *echo.Echo, patterns *titlepattern.Library, provider metadata.Provider) {
	h := &handler{
		resolver: NewResolver(patterns, provider),
	}

	e.POST("/detect", h.detect)
}
