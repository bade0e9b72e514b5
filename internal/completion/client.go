package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"personachat/internal/models"
)

const DefaultRequestTimeout = 60 * time.Second

// ImageRequiresCredentialReply is returned by GenerateImageResponse whenever
// the client is not talking to the real backend.
const ImageRequiresCredentialReply = "I'm sorry, but I can't look at images right now. " +
	"Image understanding needs a real API key; the assistant is currently running in mock mode. " +
	"Please configure your API key and try again."

// Mode is the client's position on the degradation ladder.
type Mode int

const (
	ModeNoCredential Mode = iota
	ModeReal
	ModeMock
)

func (m Mode) String() string {
	switch m {
	case ModeNoCredential:
		return "no-credential"
	case ModeReal:
		return "real"
	case ModeMock:
		return "mock"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type Options struct {
	BaseURL        string
	FallbackModel  string
	RequestTimeout time.Duration
	TopP           float64

	// Mock defaults to a MockBackend with the standard 1-2s latency.
	Mock Backend
	// NewReal builds the real backend for a key. Defaults to NewOpenAIBackend.
	NewReal func(apiKey string) Backend

	Logger *zap.Logger
}

// Client is safe for concurrent use. Backend calls never run under the lock.
type Client struct {
	mu   sync.Mutex
	mode Mode
	real Backend
	// generation changes on every SetAPIKey so a failure from an older key
	// cannot demote a freshly configured one.
	generation uint64

	mock          Backend
	newReal       func(apiKey string) Backend
	fallbackModel string
	timeout       time.Duration
	topP          float64
	logger        *zap.Logger
}

func NewClient(apiKey string, opts Options) *Client {
	c := &Client{
		mock:          opts.Mock,
		newReal:       opts.NewReal,
		fallbackModel: opts.FallbackModel,
		timeout:       opts.RequestTimeout,
		topP:          opts.TopP,
		logger:        opts.Logger,
	}
	if c.mock == nil {
		c.mock = NewMockBackend(DefaultMockMinDelay, DefaultMockMaxDelay)
	}
	if c.newReal == nil {
		baseURL := opts.BaseURL
		c.newReal = func(key string) Backend { return NewOpenAIBackend(key, baseURL) }
	}
	if c.fallbackModel == "" {
		c.fallbackModel = DefaultFallbackModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.topP <= 0 {
		c.topP = DefaultTopP
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.SetAPIKey(apiKey)
	return c
}

// SetAPIKey clears mock mode. An empty key returns the client to NoCredential.
func (c *Client) SetAPIKey(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if apiKey == "" {
		c.mode = ModeNoCredential
		c.real = nil
		return
	}
	c.mode = ModeReal
	c.real = c.newReal(apiKey)
	c.logger.Info("completion credential configured")
}

func (c *Client) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Client) IsUsingMockAPI() bool { return c.Mode() == ModeMock }

func (c *Client) IsConfigured() bool { return c.Mode() != ModeNoCredential }

// GenerateResponse returns an error only if the mock backend itself fails,
// which happens when ctx is cancelled.
func (c *Client) GenerateResponse(ctx context.Context, systemPrompt string, turns []Turn, cfg models.ModelConfig) (string, error) {
	req := c.buildRequest(systemPrompt, turns, cfg)

	backend, gen, ok := c.realBackend()
	if !ok {
		return c.completeMock(ctx, req)
	}
	return c.completeReal(ctx, backend, gen, req)
}

// GenerateImageResponse sends turns whose last user message carries imageURL.
// Without a working real backend it answers with ImageRequiresCredentialReply.
func (c *Client) GenerateImageResponse(ctx context.Context, systemPrompt string, turns []Turn, imageURL string, cfg models.ModelConfig) (string, error) {
	backend, gen, ok := c.realBackend()
	if !ok {
		c.logger.Info("image request answered without backend", zap.String("mode", c.Mode().String()))
		return ImageRequiresCredentialReply, nil
	}
	req := c.buildRequest(systemPrompt, withImage(turns, imageURL), cfg)
	return c.completeReal(ctx, backend, gen, req)
}

// realBackend returns the real backend, or moves NoCredential to Mock.
func (c *Client) realBackend() (Backend, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeReal:
		return c.real, c.generation, true
	case ModeNoCredential:
		c.mode = ModeMock
		c.logger.Info("no API key configured, using mock backend")
	}
	return nil, 0, false
}

func (c *Client) completeReal(ctx context.Context, backend Backend, gen uint64, req Request) (string, error) {
	start := time.Now()
	resp, err := c.callReal(ctx, backend, req)
	if err != nil && IsModelNotFound(err) && req.Model != c.fallbackModel {
		c.logger.Warn("model not found, retrying with fallback model",
			zap.String("model", req.Model),
			zap.String("fallback", c.fallbackModel),
			zap.Error(err))
		retry := req
		retry.Model = c.fallbackModel
		resp, err = c.callReal(ctx, backend, retry)
	}
	if err == nil {
		c.logger.Debug("completion received",
			zap.String("model", resp.Model),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
			zap.Duration("elapsed", time.Since(start)))
		return resp.Content, nil
	}

	c.logger.Error("completion backend failed, switching to mock", zap.Error(err))
	c.demote(gen)
	return c.completeMock(ctx, req)
}

func (c *Client) callReal(ctx context.Context, backend Backend, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return backend.Complete(ctx, req)
}

func (c *Client) completeMock(ctx context.Context, req Request) (string, error) {
	resp, err := c.mock.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mock backend: %w", err)
	}
	return resp.Content, nil
}

func (c *Client) demote(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen && c.mode == ModeReal {
		c.mode = ModeMock
	}
}

func (c *Client) buildRequest(systemPrompt string, turns []Turn, cfg models.ModelConfig) Request {
	temp := cfg.TemperatureOr(DefaultTemperature)
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	model := cfg.Model
	if model == "" {
		model = c.fallbackModel
	}

	messages := make([]Turn, 0, len(turns)+1)
	if systemPrompt != "" {
		messages = append(messages, SystemTurn(systemPrompt))
	}
	messages = append(messages, turns...)

	return Request{
		Model:       model,
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   maxTokens,
		TopP:        c.topP,
	}
}

// withImage makes sure the last user turn carries imageURL.
func withImage(turns []Turn, imageURL string) []Turn {
	out := append([]Turn(nil), turns...)
	if imageURL == "" {
		return out
	}
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != models.RoleUser {
			continue
		}
		if url, ok := out[i].Content.FirstImageURL(); ok && url == imageURL {
			return out
		}
		out[i].Content = models.MultiPart(models.TextPart(out[i].Content.Text()), models.ImagePart(imageURL))
		return out
	}
	return append(out, UserTurn(models.MultiPart(models.ImagePart(imageURL))))
}
