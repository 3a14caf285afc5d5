package invoker

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pitabwire/canonico/internal/config"
)

// NewTokenSource builds the outbound token source for the configured auth
// strategy. It returns nil when the strategy is "none".
func NewTokenSource(ctx context.Context, cfg config.BackendAuthConfig) (oauth2.TokenSource, error) {
	switch cfg.Strategy {
	case "", config.AuthStrategyNone:
		return nil, nil

	case config.AuthStrategyBearer:
		token := os.Getenv(cfg.TokenEnv)
		if token == "" {
			return nil, fmt.Errorf("invoker: bearer token env %q is empty", cfg.TokenEnv)
		}
		return oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}), nil

	case config.AuthStrategyClientCredentials:
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: os.Getenv(cfg.ClientSecretEnv),
			TokenURL:     cfg.TokenEndpoint,
			Scopes:       cfg.Scopes,
		}
		// The returned source caches tokens until they expire.
		return cc.TokenSource(ctx), nil

	default:
		return nil, fmt.Errorf("invoker: unsupported auth strategy %q", cfg.Strategy)
	}
}
