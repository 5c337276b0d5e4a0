// Package appsettings performs the once-per-process check for a newer wallet
// version.
package appsettings

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrAlreadyChecked = errors.New("appsettings: already checked")
	ErrUnknownStatus  = errors.New("appsettings: unknown status")
	ErrMissingURL     = errors.New("appsettings: update without url")
)

// Status values reported by the settings endpoint.
const (
	StatusOK          = "ok"
	StatusWarning     = "warning"
	StatusNeedsUpdate = "needsUpdate"
)

// Response is the settings endpoint's answer for the running version.
type Response struct {
	Status string `json:"status" cbor:"status"`
	URL    string `json:"url,omitempty" cbor:"url"`
}

// Fetcher retrieves app settings for the given version.
type Fetcher interface {
	AppSettings(ctx context.Context, version string) (Response, error)
}

// Action is what the user should be offered after the check.
type Action interface {
	isAction()
}

type ActionNone struct{}

// ActionUpdate asks the user to update. A forced update cannot be dismissed.
type ActionUpdate struct {
	URL    string
	Forced bool
}

func (ActionNone) isAction()   {}
func (ActionUpdate) isAction() {}

// ActionFor maps a response to an action.
func ActionFor(r Response) (Action, error) {
	switch r.Status {
	case StatusOK:
		return ActionNone{}, nil
	case StatusWarning, StatusNeedsUpdate:
		if r.URL == "" {
			return nil, fmt.Errorf("%w: status %s", ErrMissingURL, r.Status)
		}
		return ActionUpdate{URL: r.URL, Forced: r.Status == StatusNeedsUpdate}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
}

// Check remembers whether the settings were already fetched in this process.
// The flag is set before fetching, so a failed fetch is not retried either.
type Check struct {
	version string

	mu      sync.Mutex
	checked bool
}

func NewCheck(version string) *Check {
	return &Check{version: version}
}

// Run fetches the settings the first time it is called and returns
// ErrAlreadyChecked on every later call without contacting the fetcher.
func (c *Check) Run(ctx context.Context, f Fetcher) (Action, error) {
	c.mu.Lock()
	if c.checked {
		c.mu.Unlock()
		return nil, ErrAlreadyChecked
	}
	c.checked = true
	c.mu.Unlock()

	resp, err := f.AppSettings(ctx, c.version)
	if err != nil {
		return nil, fmt.Errorf("fetch app settings: %w", err)
	}
	return ActionFor(resp)
}

// Checked reports whether Run was called.
func (c *Check) Checked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked
}
