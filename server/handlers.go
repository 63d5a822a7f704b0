package server

import (
	"net/http"
	"strconv"

	"github.com/teranos/gitpulse/errors"
	"github.com/teranos/gitpulse/internal/version"
	"github.com/teranos/gitpulse/pulse"
)

// StatusResponse is the /api/status payload
type StatusResponse struct {
	pulse.Snapshot
	Repository RepositoryStatus    `json:"repository"`
	AI         AIStatus            `json:"ai"`
	Memory     pulse.SystemMetrics `json:"memory"`
	Version    string              `json:"version"`
}

// RepositoryStatus identifies the working tree under management
type RepositoryStatus struct {
	Path   string `json:"path"`
	Branch string `json:"branch,omitempty"`
}

// AIStatus reports local inference availability
type AIStatus struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model,omitempty"`
	Healthy bool   `json:"healthy"`
}

// HandleHealth reports server liveness
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Version,
		"commit":  version.Get().CommitHash,
		"clients": s.clientCount(),
	})
}

// HandleStatus returns the scheduler snapshot together with repository,
// AI, and host memory facts
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := StatusResponse{
		Snapshot: s.control.Snapshot(),
		Memory:   pulse.GetSystemMetrics(),
		Version:  version.Get().Version,
	}

	if s.repo != nil {
		resp.Repository.Path = s.repo.Path()
		branch, err := s.repo.CurrentBranch()
		if err != nil {
			s.logger.Debugw("Failed to resolve current branch", "error", err)
		} else {
			resp.Repository.Branch = branch
		}
	}

	if s.generator != nil {
		resp.AI = AIStatus{
			Enabled: true,
			Model:   s.generator.ModelName(),
			Healthy: s.generator.HealthCheck(r.Context()),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns recent commit outcomes, newest first
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence is not available")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	outcomes, err := s.store.RecentOutcomes(limit)
	if err != nil {
		s.logger.Errorw("Failed to read commit history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read commit history")
		return
	}

	if outcomes == nil {
		outcomes = []*pulse.Outcome{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
		"count":    len(outcomes),
	})
}

// HandleStats returns aggregate commit-log statistics
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence is not available")
		return
	}

	stats, err := s.store.Stats()
	if err != nil {
		s.logger.Errorw("Failed to compute commit stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute commit stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ControlRequestBody is the /api/control payload
type ControlRequestBody struct {
	Action string `json:"action"`
}

// HandleControl accepts pause/resume/trigger requests. The 202 response
// acknowledges acceptance, not application; the scheduler applies the
// request at its next suspension point.
func (s *Server) HandleControl(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if !s.controlLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many control requests")
		return
	}

	var body ControlRequestBody
	if err := readJSON(w, r, &body); err != nil {
		return
	}

	req, err := pulse.ParseControlRequest(body.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.control.Submit(req); err != nil {
		if errors.Is(err, errors.ErrSchedulerStopped) {
			writeError(w, http.StatusServiceUnavailable, "Scheduler is stopped")
			return
		}
		s.logger.Errorw("Failed to submit control request", "action", body.Action, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit control request")
		return
	}

	s.logger.Infow("Control request accepted", "action", body.Action)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"action": body.Action,
	})
}

// HandleConfig returns the effective configuration
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"repository": map[string]string{
			"path":   s.cfg.Repository.Path,
			"branch": s.cfg.Repository.Branch,
			"remote": s.cfg.Repository.Remote,
		},
		"schedule": map[string]interface{}{
			"interval_seconds":     s.cfg.Schedule.IntervalSeconds,
			"jitter_seconds":       s.cfg.Schedule.JitterSeconds,
			"trigger_while_paused": s.cfg.Schedule.TriggerWhilePaused,
		},
		"push": map[string]interface{}{
			"enabled":     s.cfg.Push.Enabled,
			"max_retries": s.cfg.Push.MaxRetries,
		},
		"message": map[string]interface{}{
			"max_length": s.cfg.Message.MaxLength,
			"theme":      s.cfg.Message.Theme,
		},
		"local_inference": map[string]interface{}{
			"enabled": s.cfg.LocalInference.Enabled,
			"model":   s.cfg.LocalInference.Model,
		},
	})
}
