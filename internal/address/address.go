// Package address parses user supplied "host[:port]" strings into server addresses.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/mcmotd/internal/models"
)

// Default ports applied when the input carries no port.
const (
	DefaultBedrockPort = 19132
	DefaultJavaPort    = 25565
)

// ErrInvalidAddress is returned for empty hosts and out of range or non numeric ports.
var ErrInvalidAddress = errors.New("invalid server address")

// Parse splits input on the first colon and validates both parts.
//
// When the port is omitted it is guessed from the host: a host containing a dot gets the
// Bedrock port 19132, anything else the Java port 25565. This is a heuristic, not protocol
// detection: a Java server behind a domain name also contains a dot and will be queried on
// 19132 unless the caller passes the port explicitly.
func Parse(input string) (models.ServerAddress, error) {
	host, port, hasPort := strings.Cut(strings.TrimSpace(input), ":")
	host = strings.TrimSpace(host)
	if host == "" {
		return models.ServerAddress{}, fmt.Errorf("%w: empty host", ErrInvalidAddress)
	}

	if !hasPort {
		return models.ServerAddress{Host: host, Port: DefaultPort(host)}, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return models.ServerAddress{}, fmt.Errorf("%w: port %q is not a number", ErrInvalidAddress, port)
	}
	if n < 1 || n > 65535 {
		return models.ServerAddress{}, fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, n)
	}

	return models.ServerAddress{Host: host, Port: n}, nil
}

// DefaultPort returns the edition default port guessed for host.
func DefaultPort(host string) int {
	if strings.Contains(host, ".") {
		return DefaultBedrockPort
	}

	return DefaultJavaPort
}

// Validate checks an already constructed address against the same rules Parse enforces.
func Validate(a models.ServerAddress) error {
	if strings.TrimSpace(a.Host) == "" || strings.Contains(a.Host, ":") {
		return fmt.Errorf("%w: bad host %q", ErrInvalidAddress, a.Host)
	}
	if a.Port < 1 || a.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, a.Port)
	}

	return nil
}
