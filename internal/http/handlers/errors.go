// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name the rule that was violated so clients can branch on them
// without parsing messages. writeServiceError is the single place where
// service errors are translated into status + code.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucas-desarrollador/gifiti-sub000/internal/http/middleware"
	"github.com/lucas-desarrollador/gifiti-sub000/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation      = "validation_failed"
	ErrCodeSelfRequest     = "self_request"
	ErrCodeContactExists   = "contact_exists"
	ErrCodeInvalidStatus   = "invalid_status"
	ErrCodeWishLimit       = "wish_limit_reached"
	ErrCodeInvalidPosition = "invalid_position"
	ErrCodeOwnWish         = "own_wish"
	ErrCodeNotContact      = "not_contact"
	ErrCodeAlreadyReserved = "already_reserved"
	ErrCodeNotReserver     = "not_reserver"
	ErrCodeEmailTaken      = "email_taken"
	ErrCodeNicknameTaken   = "nickname_taken"
	ErrCodeBadCredentials  = "invalid_credentials"
	ErrCodeSelfVote        = "self_vote"
	ErrCodeDuplicateVote   = "duplicate_vote"
	ErrCodeInvalidVote     = "invalid_vote"
)

type errMapping struct {
	target error
	status int
	code   string
}

// serviceErrors is checked in order with errors.Is.
var serviceErrors = []errMapping{
	{services.ErrInvalidInput, http.StatusBadRequest, ErrCodeValidation},
	{services.ErrSelfRequest, http.StatusBadRequest, ErrCodeSelfRequest},
	{services.ErrInvalidStatus, http.StatusBadRequest, ErrCodeInvalidStatus},
	{services.ErrInvalidPosition, http.StatusBadRequest, ErrCodeInvalidPosition},
	{services.ErrOwnWish, http.StatusBadRequest, ErrCodeOwnWish},
	{services.ErrSelfVote, http.StatusBadRequest, ErrCodeSelfVote},
	{services.ErrInvalidVote, http.StatusBadRequest, ErrCodeInvalidVote},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeBadCredentials},
	{services.ErrInvalidToken, http.StatusUnauthorized, ErrCodeUnauthorized},

	{services.ErrNotContact, http.StatusForbidden, ErrCodeNotContact},
	{services.ErrNotReserver, http.StatusForbidden, ErrCodeNotReserver},
	{services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},

	{services.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrContactNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrWishNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrNotificationNotFound, http.StatusNotFound, ErrCodeNotFound},

	{services.ErrContactExists, http.StatusConflict, ErrCodeContactExists},
	{services.ErrWishLimit, http.StatusConflict, ErrCodeWishLimit},
	{services.ErrAlreadyReserved, http.StatusBadRequest, ErrCodeAlreadyReserved},
	{services.ErrEmailTaken, http.StatusConflict, ErrCodeEmailTaken},
	{services.ErrNicknameTaken, http.StatusConflict, ErrCodeNicknameTaken},
	{services.ErrDuplicateVote, http.StatusConflict, ErrCodeDuplicateVote},
}

// writeServiceError maps err to a response. Known service errors keep their
// message; anything else is logged and answered with a fixed 500.
func writeServiceError(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			fail(c, m.status, m.code, err.Error())
			return
		}
	}
	middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// bindError answers a request body that failed to decode or validate.
func bindError(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid request body: "+err.Error())
}
