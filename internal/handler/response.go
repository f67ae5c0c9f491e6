package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/Payphone-Digital/fleet-registry/pkg/validation"
)

// respondError writes the error body for err. Server side failures are
// logged at error level, client mistakes at info.
func respondError(c *gin.Context, ctx context.Context, msg string, err error) {
	status := domainerrors.ToHTTPStatus(err)

	entry := logger.InfoWithContext(ctx, msg)
	if status >= http.StatusInternalServerError {
		entry = logger.ErrorWithContext(ctx, msg)
	}
	entry.Method(c.Request.Method).
		Path(c.Request.URL.Path).
		StatusCode(status).
		Duration(ctxutil.GetDuration(ctx)).
		Err(err).
		Log()

	message := domainerrors.GetErrorMessage(err)
	if !domainerrors.IsDomainError(err) {
		message = constants.MsgInternalError
	}
	c.JSON(status, constants.BuildErrorResponse(status, message))
}

// bindJSON decodes and validates the body into req, answering 400 on
// failure.
func bindJSON(c *gin.Context, ctx context.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		messages := validation.Messages(err)
		logger.InfoWithContext(ctx, "Invalid request body").
			Path(c.Request.URL.Path).
			Any("errors", messages).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(http.StatusBadRequest, strings.Join(messages, "; ")))
		return false
	}
	return true
}

// listParams returns the first value of every query parameter.
func listParams(c *gin.Context) map[string]string {
	return filter.FirstValues(c.Request.URL.Query())
}

// respondList writes the list envelope with prev and next links built
// from the request path and its original query.
func respondList[T any](c *gin.Context, key string, res pagination.Result[T]) {
	links := pagination.BuildLinks(c.Request.URL.Path, c.Request.URL.Query(), res.Page, res.PageSize, res.Total)
	c.JSON(http.StatusOK, constants.BuildListResponse(key, res.Items, links.Prev, links.Next, res.Total, res.Page))
}
