package httpscorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
)

const (
	DefaultURL            = "https://moonbix-server-9r08ifrt4-scriptvips-projects.vercel.app/moonbix/api/v1/play"
	DefaultRequestTimeout = 20 * time.Second

	maxResponseBytes = 1 << 20
	startParam       = "game_response"
	successMessage   = "success"
)

type scoreResponse struct {
	Message string `json:"message"`
	Game    struct {
		Log     int    `json:"log"`
		Payload string `json:"payload"`
	} `json:"game"`
}

// Scorer asks a remote scoring service to turn a game-start response into a
// score and a signed payload.
type Scorer struct {
	URL            string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.GameScorer = (*Scorer)(nil)

// Score returns domain.ErrUnplayable when the service does not report success.
func (s *Scorer) Score(ctx context.Context, start domain.GameStart) (domain.GameResult, error) {
	target, err := s.requestURL(start)
	if err != nil {
		return domain.GameResult{}, err
	}

	requestCtx, cancel := s.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, target, nil)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("create score request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("request score: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.GameResult{}, fmt.Errorf("read score response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.GameResult{}, fmt.Errorf("%w: scorer status %d: %s", domain.ErrUnplayable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload scoreResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.GameResult{}, fmt.Errorf("decode score response: %w", err)
	}
	if payload.Message != successMessage {
		return domain.GameResult{}, fmt.Errorf("%w: %s", domain.ErrUnplayable, payload.Message)
	}

	return domain.GameResult{Score: payload.Game.Log, Payload: payload.Game.Payload}, nil
}

func (s *Scorer) requestURL(start domain.GameStart) (string, error) {
	base := s.URL
	if base == "" {
		base = DefaultURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse scorer url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("scorer url must use http or https")
	}

	query := parsed.Query()
	query.Set(startParam, string(start))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (s *Scorer) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s *Scorer) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := s.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}
