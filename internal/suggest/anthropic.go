package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const assessSystemPrompt = `You are a prioritization assistant for people with ADHD.
Given a task, respond with a single JSON object and nothing else:
{
  "priorityScore": <float 1.0-10.0>,
  "confidence": <float 0.0-1.0>,
  "recommendedQuadrant": <int 1-4, Eisenhower quadrant>,
  "reasoning": "<one or two sentences>",
  "nextActions": ["<small concrete first step>", ...]
}
Favor small, concrete next actions that lower the barrier to starting.`

const breakdownSystemPrompt = `You are a task-breakdown assistant for people with ADHD.
Decompose the task into small sequential steps. Respond with a single JSON object and nothing else:
{
  "steps": [
    {
      "title": "<short imperative title>",
      "action": "<what to physically do>",
      "completionCriteria": "<how to know the step is done>",
      "estimatedMinutes": <int>,
      "difficultyLevel": "easy" | "medium" | "hard",
      "energyRequired": <int 1-10>,
      "focusRequired": <int 1-10>
    }
  ],
  "reasoning": "<one or two sentences>",
  "confidence": <float 0.0-1.0>
}
Each step should fit the requested target duration. The first step must be the easiest.`

// AnthropicClient implements Service against the Anthropic Messages API.
// Provider or parse failures degrade to the deterministic fallbacks rather
// than surfacing as errors.
type AnthropicClient struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
	logger  *slog.Logger
}

// NewAnthropicClient creates a suggestion client. model may be empty, in
// which case a current Sonnet model is used.
func NewAnthropicClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *AnthropicClient {
	m := anthropic.Model(model)
	if m == "" {
		m = anthropic.ModelClaudeSonnet4_20250514
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   m,
		timeout: timeout,
		logger:  logger,
	}
}

// AssessTask asks the model for a priority assessment. On any provider or
// parse failure it returns the heuristic fallback with a lowered confidence.
func (c *AnthropicClient) AssessTask(ctx context.Context, tc TaskContext) (*Assessment, error) {
	var out Assessment
	if err := c.runJSON(ctx, assessSystemPrompt, describeTask(tc), &out); err != nil {
		c.logger.Warn("task assessment degraded to fallback", "error", err, "task", tc.Title)
		return FallbackAssessment(tc, time.Now()), nil
	}

	out.PriorityScore = clampf(out.PriorityScore, 1.0, 10.0)
	out.Confidence = clampf(out.Confidence, 0.0, 1.0)
	if out.RecommendedQuadrant < 1 || out.RecommendedQuadrant > 4 {
		out.RecommendedQuadrant = 0
	}
	return &out, nil
}

// BreakdownTask asks the model to decompose a task into steps. On any
// provider or parse failure, or an empty step list, it returns the generic
// fallback breakdown.
func (c *AnthropicClient) BreakdownTask(ctx context.Context, tc TaskContext, opts BreakdownOptions) (*Breakdown, error) {
	maxSteps := opts.MaxSubtasks
	if maxSteps <= 0 {
		maxSteps = 5
	}
	target := opts.TargetDurationMinutes
	if target <= 0 {
		target = 15
	}

	prompt := fmt.Sprintf("%s\n\nProduce at most %d steps of roughly %d minutes each.",
		describeTask(tc), maxSteps, target)

	var out Breakdown
	if err := c.runJSON(ctx, breakdownSystemPrompt, prompt, &out); err != nil {
		c.logger.Warn("task breakdown degraded to fallback", "error", err, "task", tc.Title)
		return FallbackBreakdown(tc, opts), nil
	}
	if len(out.Steps) == 0 {
		c.logger.Warn("task breakdown returned no steps", "task", tc.Title)
		return FallbackBreakdown(tc, opts), nil
	}

	if len(out.Steps) > maxSteps {
		out.Steps = out.Steps[:maxSteps]
	}
	for i := range out.Steps {
		if out.Steps[i].EstimatedMinutes <= 0 {
			out.Steps[i].EstimatedMinutes = target
		}
		switch out.Steps[i].DifficultyLevel {
		case "easy", "medium", "hard":
		default:
			out.Steps[i].DifficultyLevel = "medium"
		}
		out.Steps[i].EnergyRequired = clampi(out.Steps[i].EnergyRequired, 1, 10)
		out.Steps[i].FocusRequired = clampi(out.Steps[i].FocusRequired, 1, 10)
	}
	out.Confidence = clampf(out.Confidence, 0.0, 1.0)
	return &out, nil
}

func (c *AnthropicClient) runJSON(ctx context.Context, system, prompt string, target any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("messages API: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return parseJSONResponse(sb.String(), target)
}

// parseJSONResponse extracts the first JSON object from model output, which
// may be wrapped in prose or a code fence.
func parseJSONResponse(response string, target any) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object in response: %s", truncate(response, 200))
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func describeTask(tc TaskContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n", tc.Title)
	if tc.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", tc.Description)
	}
	fmt.Fprintf(&sb, "Importance: %d/10, Urgency: %d/10\n", tc.ImportanceLevel, tc.UrgencyLevel)
	fmt.Fprintf(&sb, "Type: %s, Complexity: %s\n", tc.TaskType, tc.ComplexityLevel)
	if tc.EstimatedDurationMinutes != nil {
		fmt.Fprintf(&sb, "Estimated duration: %d minutes\n", *tc.EstimatedDurationMinutes)
	}
	if tc.DueDate != nil {
		fmt.Fprintf(&sb, "Due: %s\n", time.Unix(*tc.DueDate, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "Difficulty (1-10): executive %d, initiation %d, completion %d\n",
		tc.ExecutiveDifficulty, tc.InitiationDifficulty, tc.CompletionDifficulty)
	fmt.Fprintf(&sb, "Energy required: %d/10, user's current energy: %d/10\n",
		tc.RequiredEnergyLevel, tc.UserEnergyLevel)
	if tc.UserContext != "" {
		fmt.Fprintf(&sb, "Extra context from the user: %s\n", tc.UserContext)
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
