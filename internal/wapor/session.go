package wapor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// APIKeyHeader carries the API key on sign-in.
const APIKeyHeader = "X-GISMGR-API-KEY"

// Session holds the access token obtained with an API key. It signs in on
// first use and refreshes the token once it expires. A Session is safe for
// concurrent use and implements oauth2.TokenSource.
type Session struct {
	client *Client
	apiKey string

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSession creates a session that signs in through client with apiKey.
func NewSession(client *Client, apiKey string) *Session {
	return &Session{client: client, apiKey: apiKey}
}

// Token returns a valid access token, signing in or refreshing as needed.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token, nil
	}
	if err := s.renew(context.Background()); err != nil {
		return nil, err
	}
	return s.token, nil
}

// Refresh renews the token regardless of its expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renew(ctx)
}

// Expiry returns when the current token expires, or the zero time when the
// session has not signed in yet.
func (s *Session) Expiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// renew uses the refresh token when there is one and falls back to signing
// in again. s.mu must be held.
func (s *Session) renew(ctx context.Context) error {
	if s.token != nil && s.token.RefreshToken != "" {
		tok, err := s.client.refreshToken(ctx, s.token.RefreshToken)
		if err == nil {
			s.token = tok
			return nil
		}
		s.client.logger.WarnContext(ctx, "token refresh failed, signing in again",
			slog.String("error", err.Error()),
		)
	}

	tok, err := s.client.signIn(ctx, s.apiKey)
	if err != nil {
		return err
	}
	s.token = tok
	return nil
}

type tokenReply struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

func (r tokenReply) token() (*oauth2.Token, error) {
	if r.AccessToken == "" {
		return nil, fmt.Errorf("token reply has no access token")
	}
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok, nil
}

func (c *Client) signIn(ctx context.Context, apiKey string) (*oauth2.Token, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sign-in: %w", ErrNoSession)
	}
	req := request{
		endpoint: "sign-in",
		method:   http.MethodPost,
		url:      c.baseURL + "/iam/sign-in/",
		header:   http.Header{APIKeyHeader: []string{apiKey}},
	}

	var env envelope[tokenReply]
	if err := c.do(ctx, req, &env); err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	tok, err := env.Response.token()
	if err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	c.logger.DebugContext(ctx, "signed in", slog.Time("expiry", tok.Expiry))
	return tok, nil
}

func (c *Client) refreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	req := request{
		endpoint: "refresh",
		method:   http.MethodPost,
		url:      c.baseURL + "/iam/token",
		body: map[string]string{
			"grandType":    "refresh_token",
			"refreshToken": refreshToken,
		},
	}

	var env envelope[tokenReply]
	if err := c.do(ctx, req, &env); err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	tok, err := env.Response.token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}
