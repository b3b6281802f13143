package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Message string `json:"message,omitempty"`
}

func ReplyWithError(w http.ResponseWriter, statusCode int, errMsg string) {
	errResponse := &ErrorResponse{
		Message: errMsg,
	}
	ReplyJSONResponse(w, statusCode, errResponse)
}

// ReplyJSONResponse writes nothing until output is encoded; a value that
// cannot be encoded is answered with a 500.
func ReplyJSONResponse(w http.ResponseWriter, statusCode int, output any) {
	body, err := json.Marshal(output)
	if err != nil {
		slog.Error("encoding json response", slog.Any("error", err))
		ReplyWithError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Debug("writing json response", slog.Any("error", err))
	}
}
