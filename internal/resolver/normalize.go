package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/motd"
	"github.com/woozymasta/mcmotd/internal/provider"
)

// errUnknownPayload is returned by Normalize for payload types it has no mapping for.
var errUnknownPayload = errors.New("no normalization for payload type")

// Normalize maps an online provider payload onto the canonical report.
// Fields the provider does not send stay nil.
func Normalize(p provider.Payload, addr models.ServerAddress) (*models.StatusReport, error) {
	switch v := p.(type) {
	case *provider.BlackBEPayload:
		return fromBlackBE(v, addr), nil
	case *provider.MCAPIPayload:
		return fromMCAPI(v, addr), nil
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownPayload, p)
	}
}

func fromBlackBE(p *provider.BlackBEPayload, addr models.ServerAddress) *models.StatusReport {
	r := &models.StatusReport{
		Online:          true,
		Address:         addr,
		Provider:        string(provider.BlackBE),
		Description:     description(p.Motd),
		Version:         text(p.Version),
		ProtocolVersion: p.Agreement.Ptr(),
		PlayersOnline:   p.OnlineNum.Ptr(),
		PlayersMax:      p.Max.Ptr(),
		WorldName:       text(p.LevelName),
		GameMode:        text(p.GameMode),
		LatencyMs:       p.Delay.Ptr(),
	}

	// some deployments nest the counts under "players"
	if p.Players != nil {
		if r.PlayersOnline == nil {
			r.PlayersOnline = p.Players.Online.Ptr()
		}
		if r.PlayersMax == nil {
			r.PlayersMax = p.Players.Max.Ptr()
		}
	}

	return r
}

func fromMCAPI(p *provider.MCAPIPayload, addr models.ServerAddress) *models.StatusReport {
	r := &models.StatusReport{
		Online:        true,
		Address:       addr,
		Provider:      string(provider.MCAPI),
		Description:   description(p.Motd),
		Version:       text(p.Version),
		PlayersOnline: p.PlayersOnline.Ptr(),
		PlayersMax:    p.PlayersMax.Ptr(),
	}

	if p.Players != nil && *p.Players != nil {
		r.PlayerNames = append([]string{}, (*p.Players)...)
	}

	return r
}

func description(s *string) string {
	if s == nil {
		return ""
	}

	return strings.TrimSpace(motd.Strip(*s))
}

// text returns nil for absent and blank values so they are never rendered.
func text(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}
