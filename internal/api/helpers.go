package api

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

type ackResponse struct {
	Data ackData `json:"data"`
}

type ackData struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

// writeAck is the fixed acknowledgement payload providers expect back.
func writeAck(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, ackResponse{Data: ackData{OK: true}})
}
