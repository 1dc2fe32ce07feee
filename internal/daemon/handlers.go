package daemon

import (
	"net/http"
	"time"

	"github.com/felixgeelhaar/crucible/internal/domain"
	"github.com/felixgeelhaar/crucible/internal/mastery"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "running",
		"version": s.version,
		"storage": s.cfg.Storage.Backend,
		"topics":  len(cat.Topics()),
		"domains": cat.Domains(),
	})
}

// topicSummary is a topic as listed, joined with the learner's progress
type topicSummary struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Phase     int                `json:"phase"`
	Domain    string             `json:"domain"`
	Status    domain.TopicStatus `json:"status"`
	BestScore int                `json:"best_score"`
	Current   bool               `json:"current"`
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetMasteryState(r.Context())
	if err != nil {
		s.serviceError(w, "failed to load mastery state", err)
		return
	}

	topics := s.service.Catalog().Topics()
	result := make([]topicSummary, 0, len(topics))
	for _, t := range topics {
		p := state.TopicProgress[t.ID]
		result = append(result, topicSummary{
			ID:        t.ID,
			Title:     t.Title,
			Phase:     t.Phase,
			Domain:    t.Domain,
			Status:    p.Status,
			BestScore: p.BestScore,
			Current:   state.CurrentTopicID == t.ID,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"topics": result})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	topic, ok := s.service.Catalog().Topic(id)
	if !ok {
		s.jsonError(w, http.StatusNotFound, "topic not found", nil)
		return
	}
	state, err := s.service.GetMasteryState(r.Context())
	if err != nil {
		s.serviceError(w, "failed to load mastery state", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"topic":    topic,
		"progress": state.TopicProgress[id],
	})
}

func (s *Server) handleStartTopic(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.StartTopic(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "failed to start topic", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"current_topic_id": state.CurrentTopicID,
		"progress":         state.TopicProgress[state.CurrentTopicID],
	})
}

// submitRequest carries a free-text response
type submitRequest struct {
	Response string `json:"response"`
}

func (s *Server) handleDrillAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	topicID := r.PathValue("id")
	out, err := s.service.SubmitDrill(r.Context(), topicID, r.PathValue("drillID"), req.Response)
	if err != nil {
		s.serviceError(w, "failed to record drill attempt", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"result":           out.Result,
		"drills_attempted": out.State.TopicProgress[topicID].DrillsAttempted,
	})
}

func (s *Server) handleChallengeAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	out, err := s.service.SubmitChallenge(r.Context(), r.PathValue("id"), req.Response)
	if err != nil {
		s.serviceError(w, "failed to record challenge attempt", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, challengeResponse(out))
}

func challengeResponse(out *mastery.ChallengeOutcome) map[string]any {
	return map[string]any{
		"result":           out.Result,
		"artifact":         out.Artifact,
		"first_pass":       out.FirstPass,
		"new_badges":       out.NewBadges,
		"xp":               out.State.XP,
		"streak":           out.State.Streak,
		"current_topic_id": out.State.CurrentTopicID,
	}
}

func (s *Server) handleGetMastery(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetMasteryState(r.Context())
	if err != nil {
		s.serviceError(w, "failed to load mastery state", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, state)
}

func (s *Server) handleDomainMastery(w http.ResponseWriter, r *http.Request) {
	domains, err := s.service.ComputeDomainMastery(r.Context())
	if err != nil {
		s.serviceError(w, "failed to compute domain mastery", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"domains": domains})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(r.Context()); err != nil {
		s.serviceError(w, "failed to reset mastery state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportMasteryData(r.Context())
	if err != nil {
		s.serviceError(w, "failed to export mastery data", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="mastery.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := s.service.ExportMarkdown(r.Context())
	if err != nil {
		s.serviceError(w, "failed to export portfolio", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

type evaluateRequest struct {
	TopicID  string `json:"topic_id"`
	DrillID  string `json:"drill_id,omitempty"`
	Response string `json:"response"`
}

func (s *Server) handleEvaluateDrill(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	topic, ok := s.service.Catalog().Topic(req.TopicID)
	if !ok {
		s.jsonError(w, http.StatusNotFound, "topic not found", nil)
		return
	}
	drill, ok := topic.Drill(req.DrillID)
	if !ok {
		s.jsonError(w, http.StatusNotFound, "drill not found", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.service.EvaluateDrill(drill, req.Response))
}

func (s *Server) handleEvaluateChallenge(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	topic, ok := s.service.Catalog().Topic(req.TopicID)
	if !ok {
		s.jsonError(w, http.StatusNotFound, "topic not found", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.service.EvaluateTopicChallenge(topic, req.Response))
}
