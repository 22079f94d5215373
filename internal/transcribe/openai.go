package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chunkscribe/internal/apierr"
)

// DefaultOpenAIModel serves every size against api.openai.com, which exposes a
// single hosted Whisper model.
const DefaultOpenAIModel = openai.Whisper1

// audioClient is the subset of *openai.Client used by the engine.
// It allows injecting mocks in tests.
type audioClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	GetModel(ctx context.Context, modelID string) (openai.Model, error)
}

// Compile-time interface compliance checks.
var (
	_ Engine      = (*OpenAIEngine)(nil)
	_ audioClient = (*openai.Client)(nil)
)

// OpenAIConfig describes an OpenAI-compatible transcription endpoint.
type OpenAIConfig struct {
	// BaseURL of the API, including the /v1 suffix. Empty means api.openai.com.
	BaseURL string

	// APIKey is required for api.openai.com. Self-hosted servers usually accept any value.
	APIKey string

	// Models maps a size to the server-side model name. Sizes without an
	// entry use DefaultOpenAIModel.
	Models map[Size]string

	// Retry bounds the model lookup performed at load time.
	Retry apierr.RetryConfig
}

// ModelFor returns the server-side model name for size.
func (c OpenAIConfig) ModelFor(size Size) string {
	if name := strings.TrimSpace(c.Models[size]); name != "" {
		return name
	}
	return DefaultOpenAIModel
}

// OpenAIEngine transcribes through an OpenAI-compatible /audio/transcriptions
// endpoint. Each call is a single request: failed chunks are never retried.
type OpenAIEngine struct {
	client audioClient
	model  string
}

// NewOpenAIEngine wraps an existing client. Use LoadOpenAI to also verify
// that the model exists.
func NewOpenAIEngine(client *openai.Client, model string) *OpenAIEngine {
	return &OpenAIEngine{client: client, model: model}
}

// LoadOpenAI builds a client for cfg and confirms the model for size is
// served, retrying transient failures with backoff.
func LoadOpenAI(ctx context.Context, cfg OpenAIConfig, size Size) (*OpenAIEngine, error) {
	if cfg.BaseURL == "" && cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	e := &OpenAIEngine{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ModelFor(size),
	}
	if err := e.probe(ctx, cfg.Retry); err != nil {
		return nil, err
	}
	return e, nil
}

// probe looks the model up on the server.
func (e *OpenAIEngine) probe(ctx context.Context, retry apierr.RetryConfig) error {
	_, err := apierr.RetryWithBackoff(ctx, retry, func() (openai.Model, error) {
		m, err := e.client.GetModel(ctx, e.model)
		if err != nil {
			return m, classifyError(err)
		}
		return m, nil
	}, apierr.Retryable)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrModelLoad, e.model, err)
	}
	return nil
}

// Model returns the server-side model name.
func (e *OpenAIEngine) Model() string {
	return e.model
}

// Transcribe sends the artifact and reads the verbose JSON response, which
// carries the detected language and the processed duration.
func (e *OpenAIEngine) Transcribe(ctx context.Context, path string, opts Options) (Result, error) {
	req := openai.AudioRequest{
		Model:    e.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: opts.Language,
	}

	resp, err := e.client.CreateTranscription(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return Result{}, fmt.Errorf("transcribe %s: %w", path, apierr.ErrTimeout)
			}
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: %w", ErrTranscribeFailed, classifyError(err))
	}

	language := normalizeLanguage(resp.Language)
	if language == "" {
		language = opts.Language
	}
	return Result{
		Text:     resp.Text,
		Language: language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}, nil
}

// Close implements Engine. HTTP clients hold no per-engine resources.
func (e *OpenAIEngine) Close() error {
	return nil
}

// whisperLanguageNames maps the English names reported by verbose_json to
// ISO 639-1 codes for the languages offered in the UI.
var whisperLanguageNames = map[string]string{
	"spanish":    "es",
	"english":    "en",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
}

// normalizeLanguage returns a code for a reported language. The hosted API
// reports names ("english"); self-hosted servers usually report codes.
func normalizeLanguage(reported string) string {
	l := strings.ToLower(strings.TrimSpace(reported))
	if code, ok := whisperLanguageNames[l]; ok {
		return code
	}
	return l
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Quota exhaustion needs user action and must not be retried.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound,
			http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrServer)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("HTTP %d: %w", reqErr.HTTPStatusCode, apierr.ErrServer)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
