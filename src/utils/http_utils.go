package utils

import (
	"encoding/json"
	"net/http"
)

// SendJSON writes data as a JSON response with the given status.
func SendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// SendJSONError sends {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	SendJSON(w, map[string]string{"error": message}, statusCode)
}
