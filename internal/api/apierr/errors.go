package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/services/connection"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidAction    = "INVALID_ACTION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMatchNotFound    = "MATCH_NOT_FOUND"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeHeroNotFound     = "HERO_NOT_FOUND"
	CodeNotRegistered    = "NOT_REGISTERED"
	CodeNotInMatch       = "NOT_IN_MATCH"
	CodeMatchFull        = "MATCH_FULL"
	CodeTeamsFull        = "TEAMS_FULL"
	CodeAlreadyInMatch   = "ALREADY_IN_MATCH"
	CodeMatchFinished    = "MATCH_FINISHED"
	CodeInsufficientMana = "INSUFFICIENT_MANA"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError. Specific errors map to their
// own code; anything else falls back on its category.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Lookup errors
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrHeroNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeHeroNotFound, "Hero not found"}}
	case errors.Is(err, model.ErrRegistrationNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotRegistered, "Player is not registered"}}
	case errors.Is(err, model.ErrNotInMatch):
		return &httpError{http.StatusNotFound, APIError{CodeNotInMatch, "Not in this match"}}

	// Capacity errors
	case errors.Is(err, model.ErrMatchFull):
		return &httpError{http.StatusConflict, APIError{CodeMatchFull, "Match is full"}}
	case errors.Is(err, model.ErrBothTeamsFull):
		return &httpError{http.StatusConflict, APIError{CodeTeamsFull, "Both teams are full"}}

	case errors.Is(err, model.ErrAlreadyInMatch):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInMatch, "Already in a match"}}
	case errors.Is(err, model.ErrInsufficientMana):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientMana, "Not enough mana"}}
	case errors.Is(err, model.ErrMatchFinished):
		return &httpError{http.StatusConflict, APIError{CodeMatchFinished, "Match has finished"}}

	case errors.Is(err, connection.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}

	// Remaining rule violations carry their own message
	case errors.Is(err, model.ErrInvalidAction):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAction, rootMessage(err)}}
	case errors.Is(err, model.ErrStateMismatch):
		return &httpError{http.StatusConflict, APIError{CodeInvalidAction, rootMessage(err)}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, rootMessage(err)}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// rootMessage strips operation prefixes added by the controller, returning
// the message of the innermost error that still carries one
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || next == model.ErrInvalidAction || next == model.ErrStateMismatch || next == model.ErrNotFound {
			return err.Error()
		}
		err = next
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
