package utils

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// LookupResponse is the envelope used by read endpoints that may miss.
type LookupResponse struct {
	Found bool        `json:"found"`
	Error string      `json:"error,omitempty"`
	Count *int        `json:"count,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// WriteLookup writes a found/not-found envelope.
func WriteLookup(w http.ResponseWriter, status int, resp LookupResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// IntPtr is a small helper for optional counts in envelopes.
func IntPtr(v int) *int {
	return &v
}
