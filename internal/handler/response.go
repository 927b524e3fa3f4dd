// Package handler exposes the loyalty engine over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prive-club/internal/loyalty"
	"prive-club/internal/pkg/lock"
	"prive-club/internal/repository"
	"prive-club/internal/service"
)

// Envelope codes. Zero is success; HTTP-shaped codes cover transport
// problems and the 1xxx range covers business outcomes.
const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

const (
	CodeInsufficientBalance = 1001
	CodeRewardUnavailable   = 1002
	CodeRuleInactive        = 1003
	CodeAccountInactive     = 1004
	CodeInvalidTransition   = 1005
	CodeStatusConflict      = 1006
	CodeReferralUnknown     = 1007
	CodeLockBusy            = 1008
)

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a zero-code envelope with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope.
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ParamError writes a request validation error.
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// Fail maps a service or repository error to its envelope code. Unknown
// errors become opaque server errors so internals never leak to clients.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		Error(c, CodeInsufficientBalance, err.Error())
	case errors.Is(err, service.ErrRewardInactive):
		Error(c, CodeRewardUnavailable, err.Error())
	case errors.Is(err, service.ErrRuleInactive):
		Error(c, CodeRuleInactive, err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		Error(c, CodeAccountInactive, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrPastAppointment), errors.Is(err, service.ErrZeroAdjustment),
		errors.Is(err, service.ErrEmptyName), errors.Is(err, service.ErrInvalidRule),
		errors.Is(err, service.ErrInvalidMultiplier), errors.Is(err, service.ErrInvalidCost),
		errors.Is(err, loyalty.ErrNoTiers), errors.Is(err, loyalty.ErrTiersNotOrdered),
		errors.Is(err, loyalty.ErrDuplicateTier):
		ParamError(c, err.Error())
	case errors.Is(err, service.ErrReferralCodeUnknown):
		Error(c, CodeReferralUnknown, err.Error())
	case errors.Is(err, repository.ErrZeroEntryAmount):
		ParamError(c, err.Error())
	case errors.Is(err, repository.ErrStatusConflict):
		Error(c, CodeStatusConflict, err.Error())
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrRuleNotFound),
		errors.Is(err, repository.ErrRewardNotFound),
		errors.Is(err, repository.ErrCampaignNotFound),
		errors.Is(err, repository.ErrAppointmentNotFound):
		Error(c, CodeNotFound, err.Error())
	case errors.Is(err, lock.ErrLockTimeout):
		Error(c, CodeLockBusy, "account is busy, try again")
	default:
		Error(c, CodeServerError, "internal error")
	}
}
