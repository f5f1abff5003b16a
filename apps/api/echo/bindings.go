package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	// MarkedResponse is returned by the mark read endpoints.
	MarkedResponse struct {
		Success     string `json:"success"`
		MarkedCount int    `json:"marked_count"`
	}
)

// bindPage reads the page & page_size query parameters; invalid values fall back to the defaults.
func bindPage(ctx echo.Context) core.PageRequest {
	var page core.PageRequest
	page.Page, _ = strconv.Atoi(ctx.QueryParam("page"))
	page.PageSize, _ = strconv.Atoi(ctx.QueryParam("page_size"))
	page.Clean()
	return page
}

// idParam reads a positive integer path parameter; anything else is a 404.
func idParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errors.Wrapf(errHttpNotFound, "invalid %s %q", name, ctx.Param(name))
	}
	return id, nil
}
