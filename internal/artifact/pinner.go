package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"medichain/pkg/platform/circuit"
)

// Pinner replicates stored artifacts to an external pinning service so they
// stay retrievable outside this process. Pinning is best-effort alongside
// the local store; the content hash callers see is always the local one.
type Pinner struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewPinner(baseURL string, logger *slog.Logger) *Pinner {
	return &Pinner{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: circuit.New("pinning-service"),
		logger:  logger,
	}
}

// ErrUnavailable is returned while the breaker is open and no remote call is
// attempted.
var ErrUnavailable = errors.New("pinning service unavailable")

// Pin uploads the artifact under its hash. The remote service may address
// the content differently; its identifier is returned for reference.
func (p *Pinner) Pin(ctx context.Context, hash string, data []byte) (string, error) {
	if p.breaker.IsOpen() {
		return "", ErrUnavailable
	}

	remote, err := p.pin(ctx, hash, data)
	if err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "pinning service circuit opened", "error", err)
		}
		return "", err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "pinning service circuit closed")
	}
	return remote, nil
}

func (p *Pinner) pin(ctx context.Context, hash string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", hash)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pins", &body)
	if err != nil {
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin %s: %w", hash, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pin %s: status %d: %s", hash, resp.StatusCode, snippet)
	}

	var parsed struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("pin %s: decode response: %w", hash, err)
	}

	p.logger.InfoContext(ctx, "artifact pinned", "hash", hash, "remote_hash", parsed.Hash)
	return parsed.Hash, nil
}
