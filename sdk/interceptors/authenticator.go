package interceptors

import (
	"context"
	"os"
	"strings"

	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/rs/zerolog"
)

// DefaultSecretEnv names the environment variable holding the bearer token.
const DefaultSecretEnv = "TMDB_API_KEY_AUTH"

// TokenSource yields the bearer token. It is consulted on every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// EnvTokenSource reads the token from an environment variable at call time.
type EnvTokenSource struct {
	Key string
}

func NewEnvTokenSource(key string) EnvTokenSource {
	if key == "" {
		key = DefaultSecretEnv
	}
	return EnvTokenSource{Key: key}
}

func (s EnvTokenSource) Token(context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(s.Key))
	if token == "" {
		return "", constants.ErrMissingSecret
	}
	return token, nil
}

// StaticTokenSource always returns the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", constants.ErrMissingSecret
	}
	return string(s), nil
}

type Authenticator struct {
	tokens TokenSource
	logger *zerolog.Logger
}

func NewAuthenticator(tokens TokenSource, logger *zerolog.Logger) *Authenticator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Authenticator{
		tokens: tokens,
		logger: logger,
	}
}

func (a *Authenticator) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	token, err := a.tokens.Token(data.Ctx)
	if err != nil {
		return data, err
	}
	data.Request.Header.Set("Authorization", "Bearer "+token)
	a.logger.Debug().
		Str("request_id", data.ID).
		Str("method", data.Request.Method).
		Str("url", data.Request.URL.String()).
		Msg("outbound request")
	return data, nil
}

func (a *Authenticator) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}
