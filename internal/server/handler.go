// Package server exposes the prediction pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"billboard-vision/internal/logger"
	"billboard-vision/internal/pipeline"
	"billboard-vision/pkg/services"
)

const maxBodyBytes = 1 << 20

// PredictRequest is the body of a prediction call.
type PredictRequest struct {
	URL string `json:"url"`
}

// Handler serves the prediction endpoints.
type Handler struct {
	predictor services.PredictionService
	timeout   time.Duration
}

// NewHandler creates a Handler. A zero timeout leaves the request context
// untouched.
func NewHandler(predictor services.PredictionService, timeout time.Duration) *Handler {
	return &Handler{
		predictor: predictor,
		timeout:   timeout,
	}
}

// Routes returns the HTTP handler with every route and middleware mounted.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict_from_url/{$}", h.PredictHandler)
	mux.HandleFunc("POST /predict", h.PredictHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)
	return requestID(corsMiddleware(mux))
}

// PredictHandler handles POST /predict_from_url/.
func (h *Handler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), "server")

	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, "request body is required", http.StatusBadRequest)
			return
		}
		respondError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	log.Info().Str("url", req.URL).Msg("Prediction requested")

	result, err := h.predictor.Predict(ctx, req.URL)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsClientError(err) {
			status = http.StatusBadRequest
		}
		log.Error().
			Err(err).
			Int("status", status).
			Str("url", req.URL).
			Msg("Prediction failed")
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// HealthHandler reports liveness.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log := logger.WithComponent("server")
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
