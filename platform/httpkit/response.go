// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"brokerage_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "internal server error"

// Envelope is the uniform response wrapper for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON sends a successful envelope with the given status code.
func JSON(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// OK sends a 200 envelope.
func OK(c *gin.Context, message string, data any) {
	JSON(c, http.StatusOK, message, data)
}

// Created sends a 201 envelope.
func Created(c *gin.Context, message string, data any) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends a failure envelope with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, Envelope{Success: false, Message: message, Error: http.StatusText(status), Details: details})
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values use their Kind; anything else is an internal error.
// The underlying cause is attached to the gin context for logging and never
// written to the response. Returns true if an error was handled.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		message := domainErr.Message
		if status >= http.StatusInternalServerError {
			message = msgInternalError
		}
		Error(c, status, message, domainErr.Details)
		return true
	}

	Error(c, http.StatusInternalServerError, msgInternalError, nil)
	return true
}
