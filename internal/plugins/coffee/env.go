package coffee

import (
	"context"
	"time"

	"menubar/internal/config"
	"menubar/internal/credential"
	"menubar/internal/fetch"
	"menubar/internal/notify"
)

// API is the subset of the Coffee Tracker API the plugin uses.
type API interface {
	ActiveBags(ctx context.Context) fetch.Result[Bag]
	Uses(ctx context.Context, since time.Time, n int) fetch.Result[Use]
	CupsSince(ctx context.Context, since time.Time) (int, error)
	NewUse(ctx context.Context, bagKey string, when time.Time) ([]byte, error)
	Deactivate(ctx context.Context, bagKey string, day time.Time) ([]byte, error)
	NewBag(ctx context.Context, draft BagDraft) ([]byte, error)
}

// Env is the service bundle handed to every coffee command.
type Env struct {
	API      API
	Notifier notify.Notifier
	Prompter Prompter
	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewEnv builds the production bundle from cfg. The keychain is read lazily,
// on the first write.
func NewEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	kc := credential.Keychain{
		Service: cfg.Coffee.KeychainService,
		Account: cfg.Coffee.KeychainAccount,
	}
	client, err := NewClient(Options{
		BaseURL:  cfg.Coffee.BaseURL,
		Timeout:  cfg.Coffee.Timeout,
		Password: kc.Source(),
	})
	if err != nil {
		return nil, err
	}
	return &Env{
		API:      client,
		Notifier: notify.OSAScript{},
		Prompter: TerminalPrompter{},
		Now:      time.Now,
	}, nil
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// today returns local midnight of the current day.
func (e *Env) today() time.Time {
	n := e.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}
