package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider supplies the bearer token for requests and can obtain a new one after a 401.
type TokenProvider interface {
	AccessToken() string
	Refresh(ctx context.Context) error
}

// StaticTokenProvider always returns the same token and cannot refresh.
type StaticTokenProvider struct {
	Token string
}

func (p StaticTokenProvider) AccessToken() string { return p.Token }

func (p StaticTokenProvider) Refresh(context.Context) error {
	return &TokenRefreshError{Err: shared.ErrNoRefreshToken}
}

type tokenSourceFunc func(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error)

// OAuthTokenProvider holds an [oauth2.Token] and replaces it on Refresh.
type OAuthTokenProvider struct {
	mu     sync.RWMutex
	token  *oauth2.Token
	source tokenSourceFunc

	// OnRefresh, when set, is called with every newly obtained token, e.g. to persist it.
	// Its errors are logged to Logger and do not fail the refresh.
	OnRefresh func(*oauth2.Token) error
	Logger    *log.Logger
}

// NewRefreshTokenProvider refreshes with the refresh token grant of cfg.
func NewRefreshTokenProvider(cfg *oauth2.Config, token *oauth2.Token) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		token: token,
		source: func(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error) {
			if current == nil || current.RefreshToken == "" {
				return nil, shared.ErrNoRefreshToken
			}
			// An expired copy forces the token source to hit the token endpoint.
			stale := &oauth2.Token{RefreshToken: current.RefreshToken}
			next, err := cfg.TokenSource(ctx, stale).Token()
			if err != nil {
				return nil, err
			}
			if next.RefreshToken == "" {
				next.RefreshToken = current.RefreshToken
			}
			return next, nil
		},
	}
}

// NewClientCredentialsProvider requests a new app token from cfg on every refresh.
// The first token is fetched lazily, so AccessToken is empty until the first Refresh.
func NewClientCredentialsProvider(cfg *clientcredentials.Config) *OAuthTokenProvider {
	return &OAuthTokenProvider{
		source: func(ctx context.Context, _ *oauth2.Token) (*oauth2.Token, error) {
			return cfg.Token(ctx)
		},
	}
}

// AccessToken returns the current access token or "" when none has been obtained.
func (p *OAuthTokenProvider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == nil {
		return ""
	}
	return p.token.AccessToken
}

// Token returns a copy of the current token.
func (p *OAuthTokenProvider) Token() *oauth2.Token {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == nil {
		return nil
	}
	t := *p.token
	return &t
}

// Refresh obtains a new token. Failures are returned as [*TokenRefreshError]; cancellation is returned unchanged.
// The new token is in use even when OnRefresh fails.
func (p *OAuthTokenProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := p.source(ctx, p.token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TokenRefreshError{Err: err}
	}
	if next == nil || next.AccessToken == "" {
		return &TokenRefreshError{Err: errors.New("token endpoint returned no access token")}
	}
	p.token = next

	if p.OnRefresh != nil {
		if err := p.OnRefresh(next); err != nil {
			logger := p.Logger
			if logger == nil {
				logger = log.Default()
			}
			logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return nil
}
