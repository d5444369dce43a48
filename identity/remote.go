package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/utils"
	"go.uber.org/zap"
)

// SessionPath is the provider endpoint that returns the session bound to
// the forwarded credentials.
const SessionPath = "/api/auth/get-session"

// maxSessionBody caps the provider response read into memory.
const maxSessionBody = 1 << 20

// forwardedHeaders are copied from the inbound request to the provider.
var forwardedHeaders = []string{"Cookie", "Authorization"}

// RemoteConfig holds configuration for RemoteProvider
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RemoteProvider asks an external identity service for the session of
// each request. Nothing is cached between requests.
type RemoteProvider struct {
	sessionURL string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewRemoteProvider creates a provider for the identity service at cfg.BaseURL.
func NewRemoteProvider(cfg RemoteConfig, logger *zap.Logger) (*RemoteProvider, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid identity provider url %q", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &RemoteProvider{
		sessionURL: base.String() + SessionPath,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		now:        time.Now,
	}, nil
}

// sessionPayload is the provider's get-session response.
type sessionPayload struct {
	Session *struct {
		ID        string     `json:"id"`
		UserID    string     `json:"userId"`
		ExpiresAt *time.Time `json:"expiresAt"`
	} `json:"session"`
	User *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Session implements Provider.
func (p *RemoteProvider) Session(ctx context.Context, header http.Header) (*auth.Session, error) {
	if header.Get("Cookie") == "" && header.Get("Authorization") == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.sessionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	for _, name := range forwardedHeaders {
		for _, v := range header.Values(name) {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSessionBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}

	return p.decode(body)
}

func (p *RemoteProvider) decode(body []byte) (*auth.Session, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if payload.Session == nil || payload.User == nil {
		return nil, nil
	}
	if payload.User.ID == "" {
		return nil, fmt.Errorf("%w: user id missing", ErrMalformedSession)
	}

	session := &auth.Session{
		Principal: auth.Principal{
			ID:    payload.User.ID,
			Role:  auth.ParseRole(payload.User.Role),
			Email: payload.User.Email,
			Name:  payload.User.Name,
		},
		Raw: json.RawMessage(body),
	}
	if payload.Session.ExpiresAt != nil {
		session.ExpiresAt = *payload.Session.ExpiresAt
	}
	if session.Expired(p.now()) {
		p.logger.Debug("provider returned expired session", zap.String("principal_id", session.Principal.ID))
		return nil, nil
	}

	return session, nil
}

// NewProxy returns a handler that forwards requests unchanged to the
// identity provider at baseURL. It serves the /api/auth/* endpoints.
func NewProxy(baseURL string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid identity provider url %q", baseURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
	}
	// CORS headers are written by the router; upstream copies would duplicate them.
	proxy.ModifyResponse = func(resp *http.Response) error {
		for name := range resp.Header {
			if strings.HasPrefix(http.CanonicalHeaderKey(name), "Access-Control-") {
				resp.Header.Del(name)
			}
		}
		return nil
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("identity provider proxy failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		_ = utils.WriteError(w, http.StatusBadGateway, "Identity provider unavailable", nil)
	}

	return proxy, nil
}
