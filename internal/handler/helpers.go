package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/ai"
	"github.com/xxxsen/civiclens/internal/middleware"
	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
	"github.com/xxxsen/civiclens/internal/pkg/response"
	"github.com/xxxsen/civiclens/internal/schedule"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrTooMany), errors.Is(err, schedule.ErrJobRunning):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
	case errors.Is(err, appErr.ErrUpstreamAuth):
		response.Error(c, errcode.ErrUpstreamAuth, "upstream credentials missing or invalid")
	case errors.Is(err, appErr.ErrUpstreamUnavailable):
		response.Error(c, errcode.ErrUpstreamUnavailable, "upstream temporarily unavailable")
	case errors.Is(err, appErr.ErrMalformedResponse):
		response.Error(c, errcode.ErrMalformedResponse, "malformed upstream response")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
