package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK)
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "fitstack-backend",
		Version:   "1.0.0",
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	// Rejections carries the banned/restricted/unknown breakdown when every
	// candidate bundle was disqualified.
	Rejections *RejectionBreakdown `json:"rejections,omitempty"`
}

// RejectionBreakdown categorizes why candidate bundles were dropped.
type RejectionBreakdown struct {
	Banned     int `json:"banned"`
	Restricted int `json:"restricted"`
	Unknown    int `json:"unknown"`
}
