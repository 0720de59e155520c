package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annel0/raycast/internal/raycast"
	"github.com/annel0/raycast/internal/world"
	"github.com/annel0/raycast/internal/world/entity"
)

var (
	errPolicyNotFound = errors.New("пресет шага не найден")
	errBadRequest     = errors.New("неверный запрос")
)

// statusFor сопоставляет ошибку домена с HTTP-статусом
func statusFor(err error) int {
	switch {
	case errors.Is(err, raycast.ErrInvalidArgument),
		errors.Is(err, errBadRequest),
		errors.Is(err, world.ErrOutOfBounds),
		errors.Is(err, world.ErrUnknownBlock):
		return http.StatusBadRequest
	case errors.Is(err, errPolicyNotFound), errors.Is(err, entity.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrEntityExists):
		return http.StatusConflict
	case errors.Is(err, raycast.ErrQueryFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError пишет ответ с ошибкой; 5xx попадают в лог
func (rs *RestServer) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		rs.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	_ = c.Error(err)
	rs.fail(c, status, err.Error())
}
