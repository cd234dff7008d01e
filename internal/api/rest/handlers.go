package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

const maxFrameBytes = 8 << 20

type decideRequest struct {
	Embedding []float64 `json:"embedding"`
	ZoneID    string    `json:"zone_id,omitempty"`
}

type decideResponse struct {
	Granted        bool    `json:"granted"`
	Decision       string  `json:"decision"`
	MatchStatus    string  `json:"match_status"`
	UserType       string  `json:"user_type"`
	UserID         *string `json:"user_id,omitempty"`
	ObservedUserID *string `json:"observed_user_id,omitempty"`
	FullName       string  `json:"full_name,omitempty"`
	Similarity     float64 `json:"similarity"`
	Reason         string  `json:"reason"`
	LatencyMS      int64   `json:"latency_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbOK := s.db.Ping(ctx) == nil
	relayOK := s.relay.Connected(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"version":     s.cfg.Version,
		"environment": s.cfg.Environment,
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"database":    dbOK,
		"relay":       relayOK,
		"zone_id":     s.zoneID,
		"capture": map[string]any{
			"enabled":   s.cfg.Capture.Enabled,
			"test_mode": s.cfg.Capture.TestMode,
		},
	})
}

// handleDecide runs one decision cycle against a caller-supplied embedding.
// Intended for integration testing and manual operations, not the camera
// path.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	emb, err := vector.NewEmbeddingFromFloat64(req.Embedding)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	zoneID, err := s.resolveZone(req.ZoneID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	out := s.engine.Decide(r.Context(), emb, zoneID)
	writeJSON(w, http.StatusOK, toDecideResponse(out))
}

// handleProcessFrame accepts a multipart image upload, extracts the face
// embedding via the extraction service, and runs one decision cycle.
func (s *Server) handleProcessFrame(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "frame processing not configured"})
		return
	}

	if err := r.ParseMultipartForm(maxFrameBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected multipart form with image field"})
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing image field"})
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(io.LimitReader(file, maxFrameBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading image failed"})
		return
	}

	zoneID, err := s.resolveZone(r.FormValue("zone_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	emb, confidence, err := s.extractor.Extract(r.Context(), frame)
	if err != nil {
		s.logger.Debug("frame extraction failed", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no usable face in frame"})
		return
	}

	out := s.engine.Decide(r.Context(), emb, zoneID)
	resp := toDecideResponse(out)
	writeJSON(w, http.StatusOK, struct {
		decideResponse
		DetectionConfidence float64 `json:"detection_confidence"`
	}{resp, confidence})
}

func (s *Server) resolveZone(raw string) (uuid.UUID, error) {
	if raw == "" {
		raw = s.zoneID
	}
	return uuid.Parse(raw)
}

func toDecideResponse(out *accessdecision.Outcome) decideResponse {
	resp := decideResponse{
		Granted:     out.Granted,
		Decision:    out.Decision.String(),
		MatchStatus: out.MatchStatus.String(),
		UserType:    out.UserType.String(),
		FullName:    out.FullName,
		Similarity:  out.Similarity,
		Reason:      out.Reason,
		LatencyMS:   out.Latency.Milliseconds(),
	}
	if out.UserID != nil {
		id := out.UserID.String()
		resp.UserID = &id
	}
	if out.ObservedUserID != nil {
		id := out.ObservedUserID.String()
		resp.ObservedUserID = &id
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
