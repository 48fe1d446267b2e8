// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope shared by every endpoint:
//
//	success: { "success": true,  "data": ..., "message": "..." }
//	failure: { "success": false, "code": "not_found", "message": "...", "request_id": "..." }
//
// Conventions:
//   - Errors always carry a stable `code` (see errors.go) and the request id.
//   - `fail()` logs 5xx responses with the request-scoped logger.
//   - `ok()`, `okMessage()` and `noContent()` write success responses.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/http/middleware"
)

// Envelope is the success body returned by all endpoints.
type Envelope struct {
	Success bool   `json:"success" example:"true"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty" example:"contact removed"`
}

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"wish not found"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// fail aborts the request with the error envelope. Server errors are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Code:      code,
		Message:   msg,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}

// Fail is the exported variant of fail, used by the router for NoRoute and
// NoMethod.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success envelope around data.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// okMessage writes a success envelope with a message and optional data.
func okMessage(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: msg})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// callerID returns the authenticated user id. Routes using it sit behind
// middleware.Auth; a missing identity is answered with 401.
func callerID(c *gin.Context) (uint, bool) {
	id, found := middleware.IdentityFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return 0, false
	}
	return id.UserID, true
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

// notModified sets the ETag header and reports whether the client copy is
// current, in which case 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	if etag == "" {
		return false
	}
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
