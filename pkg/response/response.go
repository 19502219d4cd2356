package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/pkg/apperr"
)

// Body is the success envelope.
type Body struct {
	Data interface{} `json:"data"`
}

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code and the client-facing message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageData is the payload of acknowledgement responses such as deletes.
type MessageData struct {
	Message string `json:"message"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Data: data})
}

// Accepted sends a 202 JSON response with data.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Data: data})
}

// Message sends a 200 acknowledgement {"data": {"message": msg}}.
func Message(c *gin.Context, msg string) {
	OK(c, MessageData{Message: msg})
}

// Error renders err as the failure envelope. Classified errors keep their status, code and message;
// anything else becomes a generic 500 and the cause is logged server side only.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok && logger != nil {
		logger.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
	Abort(c, e)
}

// Abort writes e and stops the handler chain.
func Abort(c *gin.Context, e *apperr.Error) {
	c.AbortWithStatusJSON(e.Status(), ErrorBody{Error: ErrorDetail{Code: e.Code(), Message: e.Message}})
}

// Internal sends the generic 500 envelope.
func Internal(c *gin.Context) {
	Abort(c, &apperr.Error{Kind: apperr.KindInternal, Message: apperr.InternalMessage})
}
