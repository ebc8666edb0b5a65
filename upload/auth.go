// Package upload publishes finished videos to YouTube through the Data
// API v3, with OAuth installed-app authentication and auto-generated
// metadata.
package upload

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtube "google.golang.org/api/youtube/v3"

	"clipforge/internal/retry"
	"clipforge/internal/storage"
)

// Authenticator handles the OAuth installed-app flow with a cached
// token file, so the browser round-trip happens once per credential.
type Authenticator struct {
	ClientSecretsPath string
	TokenPath         string

	// Prompt and Input drive the interactive consent step. Defaults:
	// os.Stderr and os.Stdin.
	Prompt io.Writer
	Input  io.Reader
}

// NewAuthenticator creates an authenticator over the given credential
// paths.
func NewAuthenticator(clientSecretsPath, tokenPath string) *Authenticator {
	return &Authenticator{
		ClientSecretsPath: clientSecretsPath,
		TokenPath:         tokenPath,
		Prompt:            os.Stderr,
		Input:             os.Stdin,
	}
}

// Client returns an authenticated HTTP client, refreshing or acquiring
// a token as needed. A newly acquired token is cached for next time.
func (a *Authenticator) Client(ctx context.Context) (*oauth2.Config, oauth2.TokenSource, error) {
	data, err := os.ReadFile(a.ClientSecretsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: client secrets not found at %s (create OAuth desktop credentials in the Google Cloud console)",
				retry.ErrUnauthorized, a.ClientSecretsPath)
		}
		return nil, nil, fmt.Errorf("read client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, nil, fmt.Errorf("parse client secrets: %w", err)
	}

	token, err := a.loadToken()
	if err != nil {
		token, err = a.consentFlow(ctx, config)
		if err != nil {
			return nil, nil, err
		}
		if err := a.saveToken(token); err != nil {
			return nil, nil, err
		}
	}

	return config, config.TokenSource(ctx, token), nil
}

// consentFlow runs the manual copy-paste consent step: print the auth
// URL, read the code back, exchange it for a token.
func (a *Authenticator) consentFlow(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	url := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(a.prompt(), "Open the following URL in a browser, authorize, and paste the code:\n%s\n> ", url)

	scanner := bufio.NewScanner(a.input())
	if !scanner.Scan() {
		return nil, fmt.Errorf("read authorization code: %w", scanner.Err())
	}

	token, err := config.Exchange(ctx, scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: exchange authorization code: %v", retry.ErrUnauthorized, err)
	}
	return token, nil
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse cached token: %w", err)
	}
	return &token, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	writer, err := storage.NewAtomicWriter(a.TokenPath)
	if err != nil {
		return fmt.Errorf("cache token: %w", err)
	}
	if err := json.NewEncoder(writer).Encode(token); err != nil {
		writer.Abort()
		return fmt.Errorf("cache token: %w", err)
	}
	return writer.Commit()
}

func (a *Authenticator) prompt() io.Writer {
	if a.Prompt != nil {
		return a.Prompt
	}
	return os.Stderr
}

func (a *Authenticator) input() io.Reader {
	if a.Input != nil {
		return a.Input
	}
	return os.Stdin
}
