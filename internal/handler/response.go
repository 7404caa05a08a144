package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"UEvents/internal/locale"
	"UEvents/internal/middleware"
	"UEvents/internal/pkg"
	"UEvents/internal/service"
)

var statusOf = map[pkg.Code]int{
	pkg.CodeNotFound:     http.StatusNotFound,
	pkg.CodeForbidden:    http.StatusForbidden,
	pkg.CodeUnauthorized: http.StatusUnauthorized,
	pkg.CodeConflict:     http.StatusConflict,
	pkg.CodeInvalidInput: http.StatusBadRequest,
}

// respondError writes the error body. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	code := pkg.CodeOf(err)
	status, ok := statusOf[code]
	if !ok {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"code": pkg.CodeInternal, "msg": "internal error"})
		return
	}
	msg := err.Error()
	var ae *pkg.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	c.JSON(status, gin.H{"code": code, "msg": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": pkg.CodeInvalidInput, "msg": msg})
}

func actor(c *gin.Context) service.Actor { return middleware.ActorFrom(c) }

// lang picks the reading language: ?lang=, then the profile, then Accept-Language.
func lang(c *gin.Context) locale.Lang {
	return locale.Preferred(c.Query("lang"), actor(c).Locale, c.GetHeader("Accept-Language"))
}

func listQuery(c *gin.Context) service.ListQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	return service.ListQuery{Lang: lang(c), Page: page, Size: size}
}
