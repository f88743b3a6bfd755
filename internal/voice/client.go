package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsift/internal/logging"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
)

// Client posts recordings to an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	httpClient       *http.Client
	apiKey           string
	baseURL          string
	model            string
	language         string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// Options configure a Client. Zero values select defaults.
type Options struct {
	BaseURL          string
	APIKey           string
	Model            string
	Language         string
	HTTPTimeout      time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewClient returns a client with default timeouts and retry strategy where
// opts leaves them unset.
func NewClient(opts Options) *Client {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 60 * time.Second
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 4 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Client{
		httpClient:       &http.Client{Timeout: opts.HTTPTimeout},
		apiKey:           opts.APIKey,
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		model:            opts.Model,
		language:         opts.Language,
		retryMaxAttempts: opts.RetryMaxAttempts,
		retryBaseDelay:   opts.RetryBaseDelay,
		retryMaxDelay:    opts.RetryMaxDelay,
	}
}

// TranscribeFile uploads the recording at path and returns the normalized
// transcript. An empty transcript yields ErrNoSpeech.
func (c *Client) TranscribeFile(ctx context.Context, path string) (string, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", ErrNoSpeech
	}
	return c.Transcribe(ctx, filepath.Base(path), audio)
}

// Transcribe uploads audio (named filename, used by the provider to detect
// the format) and returns the normalized transcript.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	body, contentType, err := c.buildForm(filename, audio)
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/audio/transcriptions"
	maxAttempts := c.retryMaxAttempts
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if isRetryableNetErr(err) && attempt < maxAttempts {
				lastErr = err
				c.logRetry(attempt, 0, err)
				if err := sleepCtx(ctx, c.capped(withJitter(backoff))); err != nil {
					return "", err
				}
				backoff *= 2
				continue
			}
			return "", &UnreachableError{Host: hostOf(endpoint), Err: err}
		}

		text, wait, err := c.handle(resp)
		if err == nil {
			text = Normalize(text)
			if text == "" {
				return "", ErrNoSpeech
			}
			return text, nil
		}
		lastErr = err
		if wait < 0 || attempt == maxAttempts {
			break
		}
		if wait == 0 {
			wait = c.capped(withJitter(backoff))
			backoff *= 2
		}
		c.logRetry(attempt, resp.StatusCode, err)
		if err := sleepCtx(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// handle consumes resp. A negative wait means the error is not retryable; zero
// means retry with backoff; positive is the server's Retry-After.
func (c *Client) handle(resp *http.Response) (string, time.Duration, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out transcriptionResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", -1, fmt.Errorf("decode response: %w", err)
		}
		return out.Text, 0, nil
	}
	apiErr := decodeAPIError(resp)
	classified := classifyAPIError(apiErr, resp)
	if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
		if rl, ok := classified.(*RateLimitError); ok && rl.RetryAfter > 0 {
			return "", rl.RetryAfter, classified
		}
		return "", 0, classified
	}
	return "", -1, classified
}

func (c *Client) buildForm(filename string, audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	fields := [][2]string{{"model", c.model}, {"response_format", "json"}}
	if c.language != "" {
		fields = append(fields, [2]string{"language", c.language})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *Client) capped(d time.Duration) time.Duration {
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return d
}

func (c *Client) logRetry(attempt, status int, err error) {
	logging.L().Debug("retrying transcription",
		zap.Int("attempt", attempt),
		zap.Int("status", status),
		zap.Error(err))
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
	src := raw
	if v, ok := raw["error"].(map[string]any); ok {
		src = v
	}
	if msg, ok := src["message"].(string); ok {
		apiErr.Message = msg
	}
	if code, ok := src["code"].(string); ok {
		apiErr.Code = code
	}
	return apiErr
}

// classifyAPIError maps generic APIError to typed errors for better UX.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc := apiErr.StatusCode
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc >= 400 && sc <= 499:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Host
}
