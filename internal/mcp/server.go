// Package mcp exposes the mastery service as Model Context Protocol tools so
// an editor assistant can drive study sessions.
package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/crucible/internal/domain"
	"github.com/felixgeelhaar/crucible/internal/evaluation"
	"github.com/felixgeelhaar/crucible/internal/mastery"
	"github.com/felixgeelhaar/crucible/internal/progression"
)

// Server wraps the MCP server with Crucible functionality
type Server struct {
	mcpServer *server.Server
	service   *mastery.Service
}

// Config contains configuration for the MCP server
type Config struct {
	Service *mastery.Service
	Version string
}

// NewServer creates a new MCP server for Crucible
func NewServer(cfg Config) *Server {
	s := &Server{service: cfg.Service}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "crucible",
		Version: version,
	}, server.WithInstructions(`
Crucible is a mastery-based curriculum for applied LLM engineering.
Topics unlock in order; each is certified by a challenge scored against a rubric.

Available tools:
- crucible_topics: List topics with their progress
- crucible_topic: Show one topic's lessons, drills and challenge
- crucible_start: Start an unlocked topic
- crucible_drill: Submit a drill response
- crucible_challenge: Submit a challenge response for certification
- crucible_evaluate: Score a challenge response without recording it
- crucible_status: Show XP, streak, badges and current topic
- crucible_domains: Show mastery per domain
- crucible_export: Export the portfolio as markdown
`))

	s.registerTools()

	return s
}

// registerTools registers all Crucible MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("crucible_topics").
		Description("List curriculum topics with status and best score.").
		Handler(s.handleTopics)

	s.mcpServer.Tool("crucible_topic").
		Description("Show a topic's lessons, worked examples, drills and challenge.").
		Handler(s.handleTopic)

	s.mcpServer.Tool("crucible_start").
		Description("Start an unlocked topic and make it current.").
		Handler(s.handleStart)

	s.mcpServer.Tool("crucible_drill").
		Description("Submit a drill response. Drills give feedback and never certify.").
		Handler(s.handleDrill)

	s.mcpServer.Tool("crucible_challenge").
		Description("Submit a challenge response. Passing certifies the topic and unlocks the next.").
		Handler(s.handleChallenge)

	s.mcpServer.Tool("crucible_evaluate").
		Description("Score a challenge response without recording an attempt.").
		Handler(s.handleEvaluate)

	s.mcpServer.Tool("crucible_status").
		Description("Get XP, streak, badges and the current topic.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("crucible_domains").
		Description("Get mastery aggregated per domain.").
		Handler(s.handleDomains)

	s.mcpServer.Tool("crucible_export").
		Description("Export the passed-challenge portfolio as markdown.").
		Handler(s.handleExport)
}

// Input/Output types for tools

type TopicsInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"description=Only list topics in this domain"`
}

type TopicSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Phase     int    `json:"phase"`
	Domain    string `json:"domain"`
	Status    string `json:"status"`
	BestScore int    `json:"best_score"`
	Current   bool   `json:"current"`
}

type TopicsOutput struct {
	Topics []TopicSummary `json:"topics"`
}

type TopicInput struct {
	TopicID string `json:"topic_id" jsonschema:"description=Topic ID from crucible_topics"`
}

type TopicOutput struct {
	Topic    domain.Topic         `json:"topic"`
	Progress domain.TopicProgress `json:"progress"`
}

type StartOutput struct {
	CurrentTopicID string `json:"current_topic_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

type DrillInput struct {
	TopicID  string `json:"topic_id" jsonschema:"description=Topic ID"`
	DrillID  string `json:"drill_id" jsonschema:"description=Drill ID within the topic"`
	Response string `json:"response" jsonschema:"description=Free-text drill response"`
}

type DrillOutput struct {
	Score           int      `json:"score"`
	Feedback        string   `json:"feedback"`
	MissingElements []string `json:"missing_elements,omitempty"`
	UnmetCriteria   []string `json:"unmet_criteria,omitempty"`
	DrillsAttempted int      `json:"drills_attempted"`
}

type ChallengeInput struct {
	TopicID  string `json:"topic_id" jsonschema:"description=Topic ID"`
	Response string `json:"response" jsonschema:"description=Full challenge response"`
}

type ChallengeOutput struct {
	Score                 int      `json:"score"`
	Passed                bool     `json:"passed"`
	Confidence            string   `json:"confidence"`
	Weaknesses            []string `json:"weaknesses"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	FirstPass             bool     `json:"first_pass,omitempty"`
	NewBadges             []string `json:"new_badges,omitempty"`
	XP                    int      `json:"xp,omitempty"`
	NextTopicID           string   `json:"next_topic_id,omitempty"`
	Summary               string   `json:"summary"`
}

type StatusInput struct{}

type StatusOutput struct {
	CurrentTopicID string   `json:"current_topic_id"`
	TotalPassed    int      `json:"total_passed"`
	TopicsTotal    int      `json:"topics_total"`
	XP             int      `json:"xp"`
	Streak         int      `json:"streak"`
	Badges         []string `json:"badges"`
}

type DomainsOutput struct {
	Domains []progression.DomainMastery `json:"domains"`
}

type ExportOutput struct {
	Markdown string `json:"markdown"`
}

// Tool handlers

func (s *Server) handleTopics(ctx context.Context, input TopicsInput) (TopicsOutput, error) {
	state, err := s.service.GetMasteryState(ctx)
	if err != nil {
		return TopicsOutput{}, fmt.Errorf("failed to load mastery state: %w", err)
	}

	out := TopicsOutput{Topics: []TopicSummary{}}
	for _, t := range s.service.Catalog().Topics() {
		if input.Domain != "" && t.Domain != input.Domain {
			continue
		}
		p := state.TopicProgress[t.ID]
		out.Topics = append(out.Topics, TopicSummary{
			ID:        t.ID,
			Title:     t.Title,
			Phase:     t.Phase,
			Domain:    t.Domain,
			Status:    string(p.Status),
			BestScore: p.BestScore,
			Current:   state.CurrentTopicID == t.ID,
		})
	}
	return out, nil
}

func (s *Server) handleTopic(ctx context.Context, input TopicInput) (TopicOutput, error) {
	topic, ok := s.service.Catalog().Topic(input.TopicID)
	if !ok {
		return TopicOutput{}, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, input.TopicID)
	}
	state, err := s.service.GetMasteryState(ctx)
	if err != nil {
		return TopicOutput{}, fmt.Errorf("failed to load mastery state: %w", err)
	}
	return TopicOutput{Topic: topic, Progress: state.TopicProgress[topic.ID]}, nil
}

func (s *Server) handleStart(ctx context.Context, input TopicInput) (StartOutput, error) {
	state, err := s.service.StartTopic(ctx, input.TopicID)
	if err != nil {
		return StartOutput{}, fmt.Errorf("failed to start topic: %w", err)
	}
	topic, _ := s.service.Catalog().Topic(state.CurrentTopicID)
	return StartOutput{
		CurrentTopicID: state.CurrentTopicID,
		Status:         string(state.TopicProgress[state.CurrentTopicID].Status),
		Message: fmt.Sprintf("Started %q: %d drills, pass threshold %d.",
			topic.Title, len(topic.Drills), topic.PassThreshold),
	}, nil
}

func (s *Server) handleDrill(ctx context.Context, input DrillInput) (DrillOutput, error) {
	out, err := s.service.SubmitDrill(ctx, input.TopicID, input.DrillID, input.Response)
	if err != nil {
		return DrillOutput{}, fmt.Errorf("failed to submit drill: %w", err)
	}
	return DrillOutput{
		Score:           out.Result.Score,
		Feedback:        out.Result.Feedback,
		MissingElements: out.Result.MissingElements,
		UnmetCriteria:   out.Result.UnmetCriteria,
		DrillsAttempted: out.State.TopicProgress[input.TopicID].DrillsAttempted,
	}, nil
}

func (s *Server) handleChallenge(ctx context.Context, input ChallengeInput) (ChallengeOutput, error) {
	out, err := s.service.SubmitChallenge(ctx, input.TopicID, input.Response)
	if err != nil {
		return ChallengeOutput{}, fmt.Errorf("failed to submit challenge: %w", err)
	}

	output := resultOutput(out.Result)
	output.FirstPass = out.FirstPass
	output.XP = out.State.XP
	for _, b := range out.NewBadges {
		output.NewBadges = append(output.NewBadges, b.Title)
	}
	if out.FirstPass && out.State.CurrentTopicID != input.TopicID {
		output.NextTopicID = out.State.CurrentTopicID
	}
	return output, nil
}

func (s *Server) handleEvaluate(ctx context.Context, input ChallengeInput) (ChallengeOutput, error) {
	topic, ok := s.service.Catalog().Topic(input.TopicID)
	if !ok {
		return ChallengeOutput{}, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, input.TopicID)
	}
	return resultOutput(s.service.EvaluateTopicChallenge(topic, input.Response)), nil
}

func (s *Server) handleStatus(ctx context.Context, _ StatusInput) (StatusOutput, error) {
	state, err := s.service.GetMasteryState(ctx)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("failed to load mastery state: %w", err)
	}

	badges := make([]string, 0, len(state.Badges))
	for _, b := range state.Badges {
		badges = append(badges, b.Title)
	}
	return StatusOutput{
		CurrentTopicID: state.CurrentTopicID,
		TotalPassed:    state.TotalPassed,
		TopicsTotal:    len(s.service.Catalog().Topics()),
		XP:             state.XP,
		Streak:         state.Streak,
		Badges:         badges,
	}, nil
}

func (s *Server) handleDomains(ctx context.Context, _ StatusInput) (DomainsOutput, error) {
	domains, err := s.service.ComputeDomainMastery(ctx)
	if err != nil {
		return DomainsOutput{}, fmt.Errorf("failed to compute domain mastery: %w", err)
	}
	return DomainsOutput{Domains: domains}, nil
}

func (s *Server) handleExport(ctx context.Context, _ StatusInput) (ExportOutput, error) {
	md, err := s.service.ExportMarkdown(ctx)
	if err != nil {
		return ExportOutput{}, fmt.Errorf("failed to export portfolio: %w", err)
	}
	return ExportOutput{Markdown: md}, nil
}

func resultOutput(r evaluation.EvaluationResult) ChallengeOutput {
	verdict := "Not passed"
	if r.Passed {
		verdict = "Passed"
	}
	summary := []string{fmt.Sprintf("%s with %d/100", verdict, r.Score)}
	if len(r.Weaknesses) > 0 {
		summary = append(summary, "weakest: "+r.Weaknesses[0])
	}
	return ChallengeOutput{
		Score:                 r.Score,
		Passed:                r.Passed,
		Confidence:            string(r.Confidence),
		Weaknesses:            r.Weaknesses,
		SuggestedImprovements: r.SuggestedImprovements,
		Summary:               strings.Join(summary, " | "),
	}
}

// ServeStdio starts the MCP server on stdio (for editor integration)
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
