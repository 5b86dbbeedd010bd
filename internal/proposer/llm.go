package proposer

import (
	"alcyxob/runcoach-app/internal/config"
	"alcyxob/runcoach-app/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// llmProposer implements Proposer against an OpenAI-compatible
// chat-completions endpoint.
type llmProposer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewLLMProposer creates a proposer backed by the configured completion endpoint.
func NewLLMProposer(cfg config.ProposerConfig) Proposer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &llmProposer{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// --- Wire types for the chat-completions API ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a running coach. You reply with exactly one JSON object describing a weekly training plan. The object has keys "weekTitle" and "monday" through "sunday". Each day is either null (rest day) or an object {"title","type","blocks"} where "type" is one of easy, speed, long, recovery and "blocks" is an array of {"label","distanceKm","durationMin","pace","repeats"}. No prose, no markdown.`

// ProposeAdjustedPlan asks the model to move the postponed day's load onto
// the remaining days without changing total weekly volume.
func (p *llmProposer) ProposeAdjustedPlan(ctx context.Context, req AdjustmentRequest) (*domain.WeeklyPlan, error) {
	planJSON, err := domain.EncodePlan(req.CurrentPlan)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Current weekly plan:\n%s\n\n", planJSON)
	fmt.Fprintf(&prompt, "The athlete postponed %s (reason: %s, requested adjustment: %s).\n", req.PostponedDay, req.Reason, req.Adjustment)
	prompt.WriteString("Redistribute that day's training load across the remaining days of the same week. ")
	prompt.WriteString("Keep the postponed day as rest (null). Do not add or drop total load; move it, or merge it into one adjacent workout. ")
	prompt.WriteString("Keep every other day's workout unless the adjustment requires changing it.\n")
	writeActivityContext(&prompt, req.RecentActivities)

	return p.complete(ctx, prompt.String())
}

// GenerateWeek drafts a plan for a week that has no stored plan yet.
func (p *llmProposer) GenerateWeek(ctx context.Context, req GenerationRequest) (*domain.WeeklyPlan, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Draft a running plan for the week titled %q.\n", req.WeekTitle)
	if req.WeeklyGoalKm > 0 {
		fmt.Fprintf(&prompt, "Target weekly volume: about %.0f km.\n", req.WeeklyGoalKm)
	}
	prompt.WriteString("Use 3-5 running days with a sensible mix of easy, speed and long sessions; the rest are null.\n")
	writeActivityContext(&prompt, req.RecentActivities)

	plan, err := p.complete(ctx, prompt.String())
	if err != nil {
		return nil, err
	}
	if plan.WeekTitle == "" {
		plan.WeekTitle = req.WeekTitle
	}
	return plan, nil
}

func writeActivityContext(prompt *strings.Builder, activities []domain.Activity) {
	if len(activities) == 0 {
		return
	}
	prompt.WriteString("Recent activities for context:\n")
	for _, a := range activities {
		fmt.Fprintf(prompt, "- %s: %s, %.1f km in %d min\n",
			a.StartTime.Format("2006-01-02"), a.Name, a.DistanceM/1000, a.MovingTimeS/60)
	}
}

// complete performs one chat-completions round trip and decodes the reply
// into a validated WeeklyPlan.
func (p *llmProposer) complete(ctx context.Context, userPrompt string) (*domain.WeeklyPlan, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.4,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("WARN: Proposer request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("WARN: Proposer returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		return nil, fmt.Errorf("%w: status %d", ErrProposalFailed, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrProposalFailed)
	}

	plan, err := domain.DecodePlan(extractJSON(chat.Choices[0].Message.Content))
	if err != nil {
		log.Printf("WARN: Proposer completion did not parse as a plan: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrProposalFailed, err)
	}
	return plan, nil
}

// extractJSON strips the markdown code fences some models wrap around JSON
// despite instructions.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
	}
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
