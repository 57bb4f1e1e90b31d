package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// tokenEndpointURL is a variable so tests can stub the OAuth server.
var tokenEndpointURL = "https://oauth2.googleapis.com/token"

const tokenCacheKey = "drive:access_token"

// ErrNotConfigured is returned when the OAuth client settings are
// absent; callers treat Drive as unavailable rather than broken.
var ErrNotConfigured = errors.New("google drive credentials not configured")

// TokenSource exchanges the long-lived refresh token for short-lived
// access tokens and caches them in redis so every worker shares one
// token instead of hammering the OAuth endpoint.
type TokenSource struct {
	cfg    config.DriveConfig
	rdb    *redis.Client
	client *http.Client
	log    *logger.Logger

	mu     sync.Mutex
	cached string
	expiry time.Time
}

func NewTokenSource(cfg config.DriveConfig, rdb *redis.Client) *TokenSource {
	return &TokenSource{
		cfg:    cfg,
		rdb:    rdb,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    logger.New("drive-auth"),
	}
}

func (t *TokenSource) Configured() bool {
	return t.cfg.ClientID != "" && t.cfg.ClientSecret != "" && t.cfg.RefreshToken != ""
}

// Token returns a valid access token, from the in-process cache, then
// redis, then a fresh exchange.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if !t.Configured() {
		return "", ErrNotConfigured
	}

	t.mu.Lock()
	if t.cached != "" && time.Now().Before(t.expiry) {
		token := t.cached
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	if t.rdb != nil {
		if token, err := t.rdb.Get(ctx, tokenCacheKey).Result(); err == nil && token != "" {
			t.store(token, 5*time.Minute)
			return token, nil
		}
	}

	return t.Refresh(ctx)
}

// Refresh always performs the exchange, replacing whatever is cached.
func (t *TokenSource) Refresh(ctx context.Context) (string, error) {
	if !t.Configured() {
		return "", ErrNotConfigured
	}

	form := url.Values{}
	form.Set("client_id", t.cfg.ClientID)
	form.Set("client_secret", t.cfg.ClientSecret)
	form.Set("refresh_token", t.cfg.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(body), "invalid_grant") {
			t.invalidate(ctx)
			return "", fmt.Errorf("refresh token revoked or expired, re-authorization required: %s", string(body))
		}
		return "", fmt.Errorf("token exchange: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("token exchange: decode: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("token exchange: empty access token")
	}

	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Keep a safety margin so a token never expires mid-download.
	ttl -= 2 * time.Minute

	t.store(parsed.AccessToken, ttl)
	if t.rdb != nil {
		if err := t.rdb.Set(ctx, tokenCacheKey, parsed.AccessToken, ttl).Err(); err != nil {
			t.log.Warn("Failed to cache access token: %v", err)
		}
	}
	return parsed.AccessToken, nil
}

func (t *TokenSource) store(token string, ttl time.Duration) {
	t.mu.Lock()
	t.cached = token
	t.expiry = time.Now().Add(ttl)
	t.mu.Unlock()
}

func (t *TokenSource) invalidate(ctx context.Context) {
	t.store("", 0)
	if t.rdb != nil {
		t.rdb.Del(ctx, tokenCacheKey)
	}
}
