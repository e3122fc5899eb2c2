package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/shared"
)

const (
	defaultAssetTimeout  = 8 * time.Second
	defaultAssetMaxBytes = 5 << 20
	defaultAssetMIMEType = "image/png"
)

// EmbeddedAsset is a fetched binary asset ready to be inlined into a document
type EmbeddedAsset struct {
	MIMEType string
	Data     []byte
}

// AssetUnavailableError reports that an asset could not be fetched.
// Callers treat it as recoverable and leave the asset out.
type AssetUnavailableError struct {
	URL    string
	Reason string
	Cause  error
}

func (e *AssetUnavailableError) Error() string {
	msg := fmt.Sprintf("asset %s unavailable: %s", e.URL, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AssetUnavailableError) Unwrap() error {
	return e.Cause
}

// Code returns the domain error code
func (e *AssetUnavailableError) Code() string {
	return shared.CodeAssetUnavailable
}

// AssetEmbedderConfig contains configuration for remote asset fetching
type AssetEmbedderConfig struct {
	// Timeout bounds the whole fetch including the body read (default: 8s)
	Timeout time.Duration
	// MaxBytes caps the accepted body size (default: 5 MiB)
	MaxBytes int64
	// UserAgent sent with each request (optional)
	UserAgent string
	// Transport overrides the HTTP transport (optional, used in tests)
	Transport http.RoundTripper
	// Logger for debug output
	Logger *zap.Logger
}

// AssetEmbedder fetches remote images and returns them as inline bytes.
// It never retries; a failed fetch is reported once and the caller degrades.
type AssetEmbedder struct {
	config *AssetEmbedderConfig
	client *http.Client
	logger *zap.Logger
}

// NewAssetEmbedder creates a new asset embedder
func NewAssetEmbedder(config *AssetEmbedderConfig) *AssetEmbedder {
	if config == nil {
		config = &AssetEmbedderConfig{}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultAssetTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultAssetMaxBytes
	}

	transport := config.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AssetEmbedder{
		config: config,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		logger: logger,
	}
}

// Embed downloads the asset at url
func (e *AssetEmbedder) Embed(ctx context.Context, url string) (*EmbeddedAsset, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &AssetUnavailableError{URL: url, Reason: "empty url"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &AssetUnavailableError{URL: url, Reason: "invalid url", Cause: err}
	}
	if e.config.UserAgent != "" {
		req.Header.Set("User-Agent", e.config.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		reason := "request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "request timed out"
		}
		return nil, &AssetUnavailableError{URL: url, Reason: reason, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AssetUnavailableError{URL: url, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	// Read one byte past the limit to detect oversized bodies
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.config.MaxBytes+1))
	if err != nil {
		return nil, &AssetUnavailableError{URL: url, Reason: "failed to read body", Cause: err}
	}
	if int64(len(data)) > e.config.MaxBytes {
		return nil, &AssetUnavailableError{URL: url, Reason: fmt.Sprintf("body exceeds %d bytes", e.config.MaxBytes)}
	}
	if len(data) == 0 {
		return nil, &AssetUnavailableError{URL: url, Reason: "empty body"}
	}

	mimeType := resolveMIMEType(resp.Header.Get("Content-Type"), data)

	e.logger.Debug("asset embedded",
		zap.String("url", url),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(data)))

	return &EmbeddedAsset{MIMEType: mimeType, Data: data}, nil
}

// resolveMIMEType returns the header media type without parameters. Without a
// header the body is sniffed, and anything that is not an image becomes image/png.
func resolveMIMEType(header string, data []byte) string {
	if header = strings.TrimSpace(header); header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "" {
			return mediaType
		}
		if base := strings.TrimSpace(strings.SplitN(header, ";", 2)[0]); base != "" {
			return strings.ToLower(base)
		}
	}

	detected := mimetype.Detect(data).String()
	if strings.HasPrefix(detected, "image/") {
		return strings.SplitN(detected, ";", 2)[0]
	}
	return defaultAssetMIMEType
}
