package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// fallbackErrorResponse is marshaled once at startup so an encoding failure
// mid-request still produces a well-formed error body.
var fallbackErrorResponse []byte

func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(errorWithCategory(models.ErrorCategoryUnknown, "Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// errorWithCategory builds an error response whose result carries the same
// failure taxonomy chat replies use, so API clients branch on category
// rather than parsing messages.
func errorWithCategory(category models.ErrorCategory, message string) models.APIResponse {
	return models.NewAPIResponseBuilder().
		WithStatus(models.APIStatusError).
		WithMessage(message).
		WithResult(models.CapabilityError{Category: category, Message: message}).
		Build()
}

// writeJSONResponse marshals before touching the ResponseWriter; headers go
// out only once the body is known good.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}
