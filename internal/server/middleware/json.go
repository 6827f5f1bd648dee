package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/authapi/pkg/api"
)

// writeJSONError отправляет ошибку в формате {"error": "..."}
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
