// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope shared by every endpoint. Success
// and failure use the same shape so clients branch on `success` first:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": "Purchase successful" }
//
//	HTTP/1.1 409 Conflict
//	{
//	  "success": false,
//	  "error": "Prompt already purchased",
//	  "code": "conflict",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/prompt-vault/internal/http/middleware"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool `json:"success" example:"true"`
	// Data is the operation result on success.
	Data any `json:"data,omitempty" swaggertype:"object"`
	// Error is a human-readable message, safe to show to users.
	Error string `json:"error,omitempty" example:"Prompt not found"`
	// Code is a stable, machine-readable error code (see errors.go).
	Code string `json:"code,omitempty" example:"not_found"`
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Error:     msg,
		Code:      code,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// Fail is the exported variant of fail, used by the router for 404/405.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success envelope around data.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}
