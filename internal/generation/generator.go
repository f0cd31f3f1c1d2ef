// Package generation turns model completions into validated mindmap payloads.
// Each request renders a prompt template, parses the first JSON value out of
// the reply and validates it; validation and parse errors are fed back to the
// model for another attempt.
package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/TaskDivider/internal/llm"
	crashlog "github.com/josephgoksu/TaskDivider/internal/logger"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
	"github.com/josephgoksu/TaskDivider/internal/utils"
	"github.com/josephgoksu/TaskDivider/prompts"
)

const (
	// DefaultMaxRetries is the number of extra attempts after the first one.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// feedbackLimit bounds how much of a failed reply is echoed back.
	feedbackLimit = 500
)

// Config configures the generator.
type Config struct {
	// MaxRetries is the number of attempts after the first. Negative means none.
	MaxRetries int
	// RetryDelay is multiplied by the attempt number for transient errors.
	RetryDelay time.Duration
	// ModelID is used for token and cost accounting in logs only.
	ModelID string
}

// Generator produces validated structured output from a chat model.
type Generator struct {
	chat    model.BaseChatModel
	prompts *prompts.Loader
	cfg     Config
	logger  *slog.Logger
}

// New creates a generator. A nil loader uses the built-in prompts and a nil
// logger uses slog.Default().
func New(chat model.BaseChatModel, loader *prompts.Loader, cfg Config, logger *slog.Logger) *Generator {
	if loader == nil {
		loader = &prompts.Loader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Generator{chat: chat, prompts: loader, cfg: cfg, logger: logger.With("component", "generation")}
}

// Result carries a validated value and accounting for the call that produced it.
type Result[T any] struct {
	Value     T
	RawOutput string
	Attempts  int
	Duration  time.Duration
}

// GenerateFragment asks for the flat subtopic list of topic. nodeID is empty
// for an initial generation, otherwise it is the node being expanded and
// ancestors holds the names from the root down to that node.
//
// Any failure is returned as a *mindmap.GenerationError.
func (g *Generator) GenerateFragment(ctx context.Context, topic, nodeID string, ancestors []string) (*mindmap.FlatFragment, error) {
	key := prompts.KeyGenerateMindmap
	if nodeID != "" {
		key = prompts.KeyExpandNode
	}
	res, err := generateWithRetry(ctx, g, key, map[string]any{
		"Topic":  topic,
		"NodeID": nodeID,
		"Path":   ancestors,
	}, func(f *mindmap.FlatFragment) mindmap.ValidationResult {
		f.Normalize(nodeID)
		return f.Validate()
	})
	if err != nil {
		return nil, &mindmap.GenerationError{Topic: topic, NodeID: nodeID, Err: err}
	}
	frag := res.Value
	return &frag, nil
}

// GenerateDetail asks for the long description and evaluation checklist of a node.
func (g *Generator) GenerateDetail(ctx context.Context, topic, nodeID string) (string, []string, error) {
	res, err := generateWithRetry(ctx, g, prompts.KeyTaskDetail, map[string]any{
		"Topic":  topic,
		"NodeID": nodeID,
	}, (*Detail).Validate)
	if err != nil {
		return "", nil, err
	}
	return res.Value.TaskDetail, res.Value.EvaluationChecklist, nil
}

// GenerateRoles asks for role and responsibility assignments.
func (g *Generator) GenerateRoles(ctx context.Context, taskDetail string, checklist []string) ([]mindmap.RoleAssignment, error) {
	res, err := generateWithRetry(ctx, g, prompts.KeyRoles, map[string]any{
		"TaskDetail": taskDetail,
		"Checklist":  checklist,
	}, (*Roles).Validate)
	if err != nil {
		return nil, err
	}
	return res.Value.Roles, nil
}

// GenerateSearchQuery asks for a web search query suited to the task.
func (g *Generator) GenerateSearchQuery(ctx context.Context, topic, nodeID string) (string, error) {
	res, err := generateWithRetry(ctx, g, prompts.KeySearchQuery, map[string]any{
		"Topic":  topic,
		"NodeID": nodeID,
	}, (*SearchQuery).Validate)
	if err != nil {
		return "", err
	}
	return res.Value.Query, nil
}

// generateWithRetry is the core generation loop with validation and error
// feedback. A failed attempt is answered with a follow-up user message
// describing the problem, so the model sees its own previous reply.
func generateWithRetry[T any](
	ctx context.Context,
	g *Generator,
	key prompts.PromptKey,
	input map[string]any,
	validate func(*T) mindmap.ValidationResult,
) (*Result[T], error) {
	start := time.Now()
	if g.chat == nil {
		return nil, errors.New("no chat model configured")
	}

	prompt, err := g.render(key, input)
	if err != nil {
		return nil, err
	}
	crashlog.SetLastPrompt(prompt)
	messages := []*schema.Message{schema.UserMessage(prompt)}

	attempts := g.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := g.chat.Generate(ctx, messages)
		if err != nil {
			lastErr = fmt.Errorf("LLM generate: %w", err)
			if ctx.Err() != nil || !isTransientError(err) || attempt == attempts {
				return nil, lastErr
			}
			g.logger.Debug("transient model error, retrying", "prompt", key, "attempt", attempt, "error", err)
			if err := g.wait(ctx, g.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		var feedback string
		result, err := utils.ExtractAndParseJSON[T](resp.Content)
		if err != nil {
			lastErr = fmt.Errorf("parse JSON (attempt %d): %w", attempt, err)
			feedback = formatErrorFeedback("JSON Parse Error", err.Error(), resp.Content)
		} else if vr := validate(&result); !vr.Valid {
			lastErr = fmt.Errorf("validation failed (attempt %d): %s", attempt, vr.ErrorSummary())
			feedback = formatValidationFeedback(vr)
		} else {
			g.logUsage(key, prompt, resp, attempt, time.Since(start))
			return &Result[T]{
				Value:     result,
				RawOutput: resp.Content,
				Attempts:  attempt,
				Duration:  time.Since(start),
			}, nil
		}

		g.logger.Debug("rejected model output", "prompt", key, "attempt", attempt, "error", lastErr,
			"output", utils.Truncate(utils.OneLine(resp.Content), 200))
		messages = append(messages, schema.AssistantMessage(resp.Content, nil), schema.UserMessage(feedback))
		if attempt < attempts {
			if err := g.wait(ctx, g.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("generation failed after %d attempts: %w", attempts, lastErr)
}

func (g *Generator) render(key prompts.PromptKey, input map[string]any) (string, error) {
	content, err := g.prompts.Get(key)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(string(key)).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("execute template %s: %w", key, err)
	}
	return buf.String(), nil
}

func (g *Generator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (g *Generator) logUsage(key prompts.PromptKey, prompt string, resp *schema.Message, attempts int, took time.Duration) {
	in, out := 0, 0
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		in, out = resp.ResponseMeta.Usage.PromptTokens, resp.ResponseMeta.Usage.CompletionTokens
	} else {
		in, out = llm.CountTokens(g.cfg.ModelID, prompt), llm.CountTokens(g.cfg.ModelID, resp.Content)
	}
	g.logger.Debug("generation complete",
		"prompt", key,
		"attempts", attempts,
		"duration", took,
		"input_tokens", in,
		"output_tokens", out,
		"cost_usd", llm.CalculateCost(g.cfg.ModelID, in, out),
	)
}

// formatErrorFeedback creates a prompt section for error feedback.
func formatErrorFeedback(errorType, errorMsg, rawOutput string) string {
	truncated := rawOutput
	if len(truncated) > feedbackLimit {
		truncated = truncated[:feedbackLimit] + "... [truncated]"
	}

	return fmt.Sprintf(`PREVIOUS ATTEMPT FAILED - PLEASE FIX

Error Type: %s
Error: %s

Your previous output (which failed):
%s

Respond again with only a valid JSON object matching the required schema.`, errorType, errorMsg, truncated)
}

// formatValidationFeedback creates detailed validation error feedback.
func formatValidationFeedback(result mindmap.ValidationResult) string {
	var sb strings.Builder
	sb.WriteString("PREVIOUS ATTEMPT FAILED - SCHEMA VALIDATION ERRORS\n\n")
	sb.WriteString("Please fix the following issues:\n")
	for i, e := range result.Errors {
		fmt.Fprintf(&sb, "%d. Field '%s': %s\n", i+1, e.Field, e.Message)
		if e.Value != nil && fmt.Sprint(e.Value) != "" {
			fmt.Fprintf(&sb, "   Current value: %v\n", e.Value)
		}
	}
	sb.WriteString("\nRespond again with only the corrected JSON object.")
	return sb.String()
}

// isTransientError checks if an error is transient and worth retrying.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit", "429", "too many requests", "quota exceeded",
		"timeout", "connection", "temporary", "503", "502", "overloaded",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
