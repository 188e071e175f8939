package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/learnflex/learnflex-api/internal/config"
	"github.com/learnflex/learnflex-api/internal/generation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const tracerName = "github.com/learnflex/learnflex-api/internal/platform/gemini"

// streamFunc matches genai's Models.GenerateContentStream.
type streamFunc func(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error]

// GeminiGenerator implements generation.Generator with the Gemini API.
type GeminiGenerator struct {
	logger    *slog.Logger
	config    config.LLMConfig
	templates *template.Template
	stream    streamFunc
	tracer    trace.Tracer
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by a genai client.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models.GenerateContentStream)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, stream streamFunc) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = 2
	}

	templates, err := parsePrompts()
	if err != nil {
		return nil, err
	}

	return &GeminiGenerator{
		logger:    logger.With(slog.String("component", "gemini_generator"), slog.String("model", cfg.ModelName)),
		config:    cfg,
		templates: templates,
		stream:    stream,
		tracer:    otel.Tracer(tracerName),
		sleep:     sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *GeminiGenerator) contentConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(g.config.Temperature),
	}
}

func (g *GeminiGenerator) prepare(req generation.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return renderPrompt(g.templates, req)
}

// Generate implements generation.Generator. Transient failures are retried
// with exponential backoff and jitter; blocked content and invalid output
// are returned immediately.
func (g *GeminiGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	ctx, span := g.tracer.Start(ctx, "gemini.Generate",
		trace.WithAttributes(attribute.String("generation.kind", string(req.Kind))))
	defer span.End()

	resp, err := g.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("generation.response_bytes", len(resp.Raw)))
	return resp, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	prompt, err := g.prepare(req)
	if err != nil {
		return nil, err
	}
	log := g.logger.With(slog.String("kind", string(req.Kind)))
	maxRetries := g.config.MaxRetries

	for attempt := 0; ; attempt++ {
		log.InfoContext(ctx, "calling Gemini", "attempt", attempt+1, "max_attempts", maxRetries+1)

		resp, err := generation.Collect(req.Kind, g.streamPrompt(ctx, prompt))
		if err == nil {
			log.InfoContext(ctx, "Gemini call succeeded", "attempt", attempt+1, "response_bytes", len(resp.Raw))
			return resp, nil
		}

		log.ErrorContext(ctx, "Gemini call failed", "attempt", attempt+1, "error", err)
		if !errors.Is(err, generation.ErrTransientFailure) {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := g.backoff(attempt)
		log.InfoContext(ctx, "retrying after delay", "attempt", attempt+1, "delay", delay.String())
		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// backoff is baseDelay * 2^attempt * a jitter factor in [0.5, 1.0).
func (g *GeminiGenerator) backoff(attempt int) time.Duration {
	seconds := float64(g.config.RetryDelaySeconds) * math.Pow(2, float64(attempt))
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(seconds * jitter * float64(time.Second))
}

// Stream implements generation.Generator. It makes a single attempt: chunks
// already yielded cannot be taken back by a retry.
func (g *GeminiGenerator) Stream(ctx context.Context, req generation.Request) iter.Seq2[generation.Chunk, error] {
	return func(yield func(generation.Chunk, error) bool) {
		ctx, span := g.tracer.Start(ctx, "gemini.Stream",
			trace.WithAttributes(attribute.String("generation.kind", string(req.Kind))))
		defer span.End()

		prompt, err := g.prepare(req)
		if err != nil {
			span.RecordError(err)
			yield(generation.Chunk{}, err)
			return
		}

		var sb strings.Builder
		for chunk, err := range g.streamPrompt(ctx, prompt) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(generation.Chunk{}, err)
				return
			}
			sb.WriteString(chunk.Text)
			if !yield(chunk, nil) {
				return
			}
		}

		if err := generation.ValidateResponse(req.Kind, []byte(strings.TrimSpace(sb.String()))); err != nil {
			span.RecordError(err)
			yield(generation.Chunk{}, err)
		}
	}
}

// streamPrompt sends one prompt and translates genai responses into text
// chunks and generation errors.
func (g *GeminiGenerator) streamPrompt(ctx context.Context, prompt string) iter.Seq2[generation.Chunk, error] {
	return func(yield func(generation.Chunk, error) bool) {
		received := false
		for resp, err := range g.stream(ctx, g.config.ModelName, genai.Text(prompt), g.contentConfig()) {
			if err != nil {
				yield(generation.Chunk{}, classifyError(err))
				return
			}
			text, err := responseText(resp)
			if err != nil {
				yield(generation.Chunk{}, err)
				return
			}
			received = true
			if text == "" {
				continue
			}
			if !yield(generation.Chunk{Text: text}, nil) {
				return
			}
		}
		if !received {
			yield(generation.Chunk{}, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse))
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// classifyError maps client errors to generation errors. Rate limits,
// server errors and network failures are transient; other API errors are not.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
