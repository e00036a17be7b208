// Package credential looks up API secrets in the OS credential store.
package credential

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

// ErrNotFound is returned when no secret is stored for the service/account pair.
var ErrNotFound = errors.New("credential not found")

// Keychain is a single secret addressed by a service and account name.
// It satisfies oauth2.TokenSource so that HTTP clients can take any token
// source, and tests can substitute oauth2.StaticTokenSource.
type Keychain struct {
	Service string
	Account string
}

// Password returns the stored secret.
func (k Keychain) Password() (string, error) {
	secret, err := keyring.Get(k.Service, k.Account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%s (%s): %w", k.Service, k.Account, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("keychain %s: %w", k.Service, err)
	}
	if secret == "" {
		return "", fmt.Errorf("%s (%s): empty secret: %w", k.Service, k.Account, ErrNotFound)
	}
	return secret, nil
}

// Token implements oauth2.TokenSource. The secret is returned as a
// non-expiring access token.
func (k Keychain) Token() (*oauth2.Token, error) {
	secret, err := k.Password()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: secret}, nil
}

// Source returns a token source that reads the keychain at most once.
func (k Keychain) Source() oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, k)
}
