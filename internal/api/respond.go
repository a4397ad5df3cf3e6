package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/middleware"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"go.uber.org/zap"
)

// Responder writes the {"message": ...} error body every handler uses.
type Responder struct {
	logger *zap.Logger

	// exposeErrors appends the underlying error to 500 messages. Useful in
	// development, off in production.
	exposeErrors bool
}

func NewResponder(logger *zap.Logger, exposeErrors bool) Responder {
	return Responder{logger: logger, exposeErrors: exposeErrors}
}

func (r Responder) fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// serverError logs err and answers 500 with "Error <action>".
func (r Responder) serverError(c *gin.Context, action string, err error) {
	r.logger.Error("request failed",
		zap.String("action", action),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)

	message := "Error " + action
	if r.exposeErrors {
		message += ": " + err.Error()
	}
	r.fail(c, http.StatusInternalServerError, message)
}

// notFoundOr answers 404 for a *repository.NotFoundError and 500 otherwise.
func (r Responder) notFoundOr(c *gin.Context, action string, err error) {
	var nf *repository.NotFoundError
	if errors.As(err, &nf) {
		r.fail(c, http.StatusNotFound, nf.Error())
		return
	}
	r.serverError(c, action, err)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
