// Package models defines the data structures shared by the resolver, the report renderer,
// the HTTP API and the binding storage.
package models

import (
	"encoding/json"
	"net"
	"strconv"
	"time"
)

// Edition is the Minecraft flavour a status provider endpoint expects.
type Edition string

const (
	EditionAuto    Edition = "auto"
	EditionJava    Edition = "java"
	EditionBedrock Edition = "bedrock"
)

// ServerAddress is a parsed host and port pair. Values are never mutated after construction.
type ServerAddress struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// String returns the address in host:port form, bracketing IPv6 literals.
func (a ServerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// StatusReport is the canonical, provider independent server status.
// Pointer and nil slice fields mean "unknown" and are never rendered.
type StatusReport struct {
	Address         ServerAddress `json:"address"`
	Provider        string        `json:"provider"`
	Description     string        `json:"description"`
	Version         *string       `json:"version,omitempty"`
	WorldName       *string       `json:"world_name,omitempty"`
	GameMode        *string       `json:"game_mode,omitempty"`
	Country         *string       `json:"country,omitempty"`
	ProtocolVersion *int          `json:"protocol_version,omitempty"`
	PlayersOnline   *int          `json:"players_online,omitempty"`
	PlayersMax      *int          `json:"players_max,omitempty"`
	LatencyMs       *int          `json:"latency_ms,omitempty"`

	// PlayerNames is nil when the provider does not expose a player list,
	// and empty (non-nil) when it reports that nobody is online. JSON omits the
	// unknown list and writes the verified empty one as [].
	PlayerNames []string `json:"player_names"`

	Online bool `json:"online"`
}

// MarshalJSON implements json.Marshaler.
func (r StatusReport) MarshalJSON() ([]byte, error) {
	type plain StatusReport
	out := struct {
		plain
		PlayerNames *[]string `json:"player_names,omitempty"`
	}{plain: plain(r)}

	if r.PlayerNames != nil {
		names := r.PlayerNames
		out.PlayerNames = &names
	}

	return json.Marshal(out)
}

// FailureReason classifies why no report could be produced.
type FailureReason string

const (
	ReasonUnreachable        FailureReason = "unreachable"
	ReasonAllProvidersFailed FailureReason = "all_providers_failed"
	ReasonMalformedResponse  FailureReason = "malformed_response"
	ReasonServerOffline      FailureReason = "server_offline"
)

// ResolutionFailure is the terminal, non-report outcome of a status resolution.
type ResolutionFailure struct {
	Reason  FailureReason `json:"reason"`
	Address ServerAddress `json:"address"`
}

func (f *ResolutionFailure) Error() string {
	return "resolve " + f.Address.String() + ": " + string(f.Reason)
}

// Result holds exactly one of Report or Failure.
type Result struct {
	Report  *StatusReport      `json:"report,omitempty"`
	Failure *ResolutionFailure `json:"failure,omitempty"`
}

// OK reports whether the result carries a status report.
func (r Result) OK() bool {
	return r.Report != nil
}

// GroupBinding associates a chat group with one server address.
type GroupBinding struct {
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	GroupID   string        `json:"group_id"`
	Address   ServerAddress `json:"address"`
}
