package handlers

import (
	"errors"
	"net/http"

	"github.com/vaughan-dsouza/BeAuth/internal/auth"
	"github.com/vaughan-dsouza/BeAuth/internal/utils"
)

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details []auth.FieldError `json:"details,omitempty"`
}

type errorKind struct {
	target  error
	status  int
	code    string
	outcome string
}

// errorKinds is checked in order; outer kinds come before the causes they
// may wrap so sign-up hashing failures still read "Error creating user".
var errorKinds = []errorKind{
	{auth.ErrValidation, http.StatusBadRequest, auth.CodeValidation, "validation_failed"},
	{auth.ErrDuplicateEmail, http.StatusConflict, auth.CodeDuplicateEmail, "duplicate_email"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, auth.CodeInvalidCredentials, "invalid_credentials"},
	{auth.ErrTokenVerify, http.StatusUnauthorized, auth.CodeTokenInvalid, "invalid_token"},
	{auth.ErrCreateUser, http.StatusInternalServerError, auth.CodeCreateUserFailed, "error"},
	{auth.ErrAuthenticate, http.StatusInternalServerError, auth.CodeSignInFailed, "error"},
	{auth.ErrListUsers, http.StatusInternalServerError, auth.CodeListUsersFailed, "error"},
	{auth.ErrTokenSign, http.StatusInternalServerError, auth.CodeTokenSignFailed, "error"},
	{auth.ErrHashing, http.StatusInternalServerError, auth.CodeHashFailed, "error"},
	{auth.ErrVerifying, http.StatusInternalServerError, auth.CodeHashFailed, "error"},
}

func classify(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k, true
		}
	}
	return errorKind{}, false
}

// outcome names err for the auth events metric.
func outcome(err error) string {
	if k, ok := classify(err); ok {
		return k.outcome
	}
	return "error"
}

// writeError maps err to a status and a stable JSON body. Details of
// internal failures were logged where they happened and are not echoed.
func writeError(w http.ResponseWriter, err error) {
	k, ok := classify(err)
	if !ok {
		utils.JSON(w, http.StatusInternalServerError, errorBody{
			Error: "Internal server error",
			Code:  "INTERNAL",
		})
		return
	}

	body := errorBody{Error: k.target.Error(), Code: k.code}

	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		body.Error = "Validation failed"
		body.Details = verr.Fields
	}

	utils.JSON(w, k.status, body)
}
