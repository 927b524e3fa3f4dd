package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	headerAccountID = "X-Account-ID"
	headerRole      = "X-Role"

	roleAdmin = "admin"

	ctxAccountID = "account_id"
)

// LoggerMiddleware logs each request with latency and status.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info().
			Int("status", c.Writer.Status()).
			Str("method", c.Request.Method).
			Str("path", path).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// RecoveryMiddleware turns panics into 500 responses instead of crashing
// the process.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("Handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
					Code:    CodeServerError,
					Message: "internal error",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows the studio's web frontend to call the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Account-ID, X-Role")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequireAccount resolves the calling member from the X-Account-ID header.
// Identity is established upstream by the studio's auth proxy; this service
// only trusts the forwarded headers.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerAccountID)
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || accountID <= 0 {
			c.AbortWithStatusJSON(http.StatusOK, Response{
				Code:    CodeUnauthorized,
				Message: "missing or invalid account identity",
			})
			return
		}
		c.Set(ctxAccountID, accountID)
		c.Next()
	}
}

// RequireAdmin restricts a route group to staff callers.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerRole) != roleAdmin {
			c.AbortWithStatusJSON(http.StatusOK, Response{
				Code:    CodeForbidden,
				Message: "admin role required",
			})
			return
		}
		c.Next()
	}
}

// accountID returns the member identity set by RequireAccount.
func accountID(c *gin.Context) int64 {
	return c.GetInt64(ctxAccountID)
}
