package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payload is the provider specific response. Implementations are BlackBEPayload and MCAPIPayload.
type Payload interface {
	// Provider returns the ID of the provider that produced the payload.
	Provider() ID

	// Online maps the provider's status sentinel to a bool.
	// It returns ErrMalformed when the sentinel is absent or not understood.
	Online() (bool, error)

	payload()
}

// BlackBEPayload is the motdbe.blackbe.work response body.
type BlackBEPayload struct {
	Players   *PlayerCounts   `json:"players"`
	Motd      *string         `json:"motd"`
	Version   *string         `json:"version"`
	LevelName *string         `json:"level_name"`
	GameMode  *string         `json:"gamemode"`
	Agreement *Int            `json:"agreement"`
	OnlineNum *Int            `json:"online"`
	Max       *Int            `json:"max"`
	Delay     *Int            `json:"delay"`
	Host      string          `json:"host"`
	Status    json.RawMessage `json:"status"`
}

// Provider implements Payload.
func (p *BlackBEPayload) Provider() ID { return BlackBE }

// Online implements Payload. BlackBE reports "online" or "offline".
func (p *BlackBEPayload) Online() (bool, error) {
	return parseStatus(p.Status, "online")
}

func (p *BlackBEPayload) payload() {}

// PlayerCounts is the nested players object some BlackBE responses carry.
type PlayerCounts struct {
	Online *Int `json:"online"`
	Max    *Int `json:"max"`
}

// UnmarshalJSON ignores anything that is not an object, leaving both counts unknown.
func (c *PlayerCounts) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 || data[0] != '{' {
		return nil
	}

	type plain PlayerCounts
	return json.Unmarshal(data, (*plain)(c))
}

// MCAPIPayload is the api.imlazy.ink/mcapi response body (type=json).
type MCAPIPayload struct {
	Players       *NameList       `json:"players"`
	Motd          *string         `json:"motd"`
	Version       *string         `json:"version"`
	Port          *Int            `json:"port"`
	PlayersOnline *Int            `json:"players_online"`
	PlayersMax    *Int            `json:"players_max"`
	Host          string          `json:"host"`
	Status        json.RawMessage `json:"status"`
}

// Provider implements Payload.
func (p *MCAPIPayload) Provider() ID { return MCAPI }

// Online implements Payload. mcapi reports "在线" (online) or "离线" (offline).
func (p *MCAPIPayload) Online() (bool, error) {
	return parseStatus(p.Status, "在线")
}

func (p *MCAPIPayload) payload() {}

// parseStatus accepts a string sentinel compared against online, or a plain JSON bool.
func parseStatus(raw json.RawMessage, online string) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, fmt.Errorf("%w: missing status", ErrMalformed)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("%w: status %s", ErrMalformed, raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return false, fmt.Errorf("%w: empty status", ErrMalformed)
	}

	return strings.EqualFold(s, online), nil
}

// Int decodes a JSON number or a numeric string.
// Blank, non-numeric or out of range values leave it unknown instead of failing the whole payload.
// Objects and arrays are malformed.
type Int struct {
	v   int
	set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Int) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	} else if len(s) > 0 && (s[0] == '{' || s[0] == '[') {
		return fmt.Errorf("%w: not a number: %s", ErrMalformed, data)
	}

	if v, err := strconv.Atoi(s); err == nil {
		*n = Int{v: v, set: true}
		return nil
	}
	// NaN fails both comparisons
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= math.MinInt && f < math.MaxInt {
		*n = Int{v: int(f), set: true}
		return nil
	}

	*n = Int{}

	return nil
}

// Ptr returns the value as *int, nil when the receiver is nil or the value is unknown.
func (n *Int) Ptr() *int {
	if n == nil || !n.set {
		return nil
	}
	v := n.v

	return &v
}

// NameList decodes either a JSON array of names or a single comma separated string.
// An empty array is a verified empty list, an empty string leaves the list unknown (nil).
type NameList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *NameList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*l = cleanNames(names)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: players: %s", ErrMalformed, bytes.TrimSpace(data))
	}

	// an empty string means the provider could not read the list
	if strings.TrimSpace(s) == "" {
		*l = nil
		return nil
	}

	*l = cleanNames(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，'
	}))

	return nil
}

func cleanNames(in []string) NameList {
	out := make(NameList, 0, len(in))
	for _, name := range in {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}

	return out
}

// decode parses body into the payload type of id. A body that is not JSON is returned as a
// plain error; valid JSON with fields of the wrong type is wrapped with ErrMalformed.
func decode(id ID, body []byte) (Payload, error) {
	var p Payload
	switch id {
	case BlackBE:
		p = &BlackBEPayload{}
	case MCAPI:
		p = &MCAPIPayload{}
	default:
		return nil, fmt.Errorf("unknown provider %q", id)
	}

	if err := json.Unmarshal(body, p); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, ErrMalformed):
			return nil, fmt.Errorf("%s body: %w", id, err)
		case errors.As(err, &typeErr):
			return nil, fmt.Errorf("%w: %s body: %w", ErrMalformed, id, err)
		default:
			return nil, fmt.Errorf("decode %s body: %w", id, err)
		}
	}

	return p, nil
}
