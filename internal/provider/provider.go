// Package provider performs single status lookups against third-party Minecraft status APIs.
package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/woozymasta/mcmotd/internal/models"
)

// ID names a supported status provider.
type ID string

const (
	// BlackBE is motdbe.blackbe.work, the primary provider. It detects the edition itself.
	BlackBE ID = "blackbe"

	// MCAPI is api.imlazy.ink/mcapi, queried as the Java edition fallback.
	MCAPI ID = "mcapi"
)

var (
	// ErrTransport covers connection failures, timeouts, non-2xx responses and bodies that are not JSON.
	ErrTransport = errors.New("provider transport error")

	// ErrMalformed marks a JSON payload with fields of the wrong type, or whose status sentinel
	// is missing or not understood.
	ErrMalformed = errors.New("malformed provider payload")
)

// Endpoint describes where and how a provider is queried.
type Endpoint struct {
	ID      ID
	BaseURL string
	Edition models.Edition
}

// URL builds the lookup URL for addr, keeping any query already present in BaseURL.
func (e Endpoint) URL(addr models.ServerAddress) (string, error) {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse %s base url: %w", e.ID, err)
	}

	q := u.Query()
	switch e.ID {
	case BlackBE:
		q.Set("host", addr.Host+":"+strconv.Itoa(addr.Port))
	case MCAPI:
		q.Set("host", addr.Host)
		q.Set("port", strconv.Itoa(addr.Port))
		q.Set("type", "json")
	default:
		return "", fmt.Errorf("unknown provider %q", e.ID)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
