// Package interpreter turns a transcript into raw intent JSON by asking an
// external language model. The output is untrusted; callers normalize it.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/config"
)

// Interpreter returns the JSON object the model produced, or a JSON
// {"error": "..."} object when the model could not understand the transcript.
type Interpreter interface {
	Interpret(ctx context.Context, transcript string, task intent.Task) ([]byte, error)
}

// Func adapts a plain function (tests, CLI stubs) to Interpreter.
type Func func(ctx context.Context, transcript string, task intent.Task) ([]byte, error)

func (f Func) Interpret(ctx context.Context, transcript string, task intent.Task) ([]byte, error) {
	return f(ctx, transcript, task)
}

// completer is one chat turn against a concrete provider.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

type Client struct {
	llm     completer
	limiter *rate.Limiter
	loc     *time.Location
	clock   func() time.Time
	logger  *zap.Logger
}

// New picks the provider from config. openrouter and openai share the
// chat-completions wire format; gemini goes through the genai SDK.
func New(ctx context.Context, cfg config.InterpreterConfig, loc *time.Location, logger *zap.Logger) (*Client, error) {
	var (
		llm completer
		err error
	)
	switch cfg.Provider {
	case "openrouter", "openai", "":
		llm = newChatClient(cfg)
	case "gemini":
		llm, err = newGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("interpreter: unknown provider %q", cfg.Provider)
	}
	return newClient(llm, cfg.RPS, loc, logger), nil
}

func newClient(llm completer, rps float64, loc *time.Location, logger *zap.Logger) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		llm:     llm,
		limiter: rate.NewLimiter(limit, 1),
		loc:     loc,
		clock:   time.Now,
		logger:  logger,
	}
}

func (c *Client) Interpret(ctx context.Context, transcript string, task intent.Task) ([]byte, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, apperr.ErrInvalid("transcript is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.ErrUnavailable("interpreter is busy, try again").Wrap(err)
	}

	system, user := prompts(task, transcript, c.clock().In(c.loc))
	start := time.Now()
	raw, err := c.llm.complete(ctx, system, user)
	if err != nil {
		c.logger.Warn("interpreter call failed", zap.String("task", string(task)), zap.Error(err))
		return nil, apperr.ErrUnavailable("interpreter unavailable").Wrap(err)
	}
	c.logger.Debug("interpreter call",
		zap.String("task", string(task)),
		zap.Duration("dur", time.Since(start)),
		zap.Int("len", len(raw)))
	return extractJSON(raw), nil
}

var fenced = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON strips markdown fences or surrounding prose from model output.
func extractJSON(text string) []byte {
	if m := fenced.FindStringSubmatch(text); m != nil {
		return []byte(strings.TrimSpace(m[1]))
	}
	first, last := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if first >= 0 && last > first {
		return []byte(text[first : last+1])
	}
	return []byte(strings.TrimSpace(text))
}
