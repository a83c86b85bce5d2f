package http

import (
	"errors"
	"net/http"

	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
)

// invalidCredentialsDescription is the single message for every login
// failure. Wording that varies by cause would leak which accounts exist.
const invalidCredentialsDescription = "Invalid email or password"

func writeError(w http.ResponseWriter, code int, err, description string) {
	httpx.WriteJSON(w, code, ErrorResponse{
		Error:            err,
		ErrorDescription: description,
	})
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "server_error", "Something went wrong")
}

// writeValidationError renders ozzo field errors as a 400. Returns false
// when the error is not a validation error.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_request", verrs.Error())
	return true
}
