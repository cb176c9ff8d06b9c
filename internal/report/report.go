// Package report renders resolution results as plain, localized text.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/mcmotd/internal/models"
	"golang.org/x/text/language"
)

// Lang is a supported report language.
type Lang string

const (
	LangZH Lang = "zh"
	LangEN Lang = "en"

	// DefaultLang matches the wording chat users of the bot are used to.
	DefaultLang = LangZH
)

var (
	supported = []Lang{LangZH, LangEN}
	matcher   = language.NewMatcher([]language.Tag{language.Chinese, language.English})
)

// ParseLang returns the language named by s, or fallback when s is not supported.
func ParseLang(s string, fallback Lang) Lang {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case LangZH:
		return LangZH
	case LangEN:
		return LangEN
	}

	return fallback
}

// MatchLang picks a language for an HTTP Accept-Language header value.
func MatchLang(acceptLanguage string, fallback Lang) Lang {
	if strings.TrimSpace(acceptLanguage) == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}

	return supported[index]
}

// Render formats a report or a failure. Report fields that are unknown are skipped.
func Render(res models.Result, lang Lang) string {
	t := textsFor(lang)

	if res.Report == nil {
		if res.Failure == nil {
			return t.failures[models.ReasonAllProvidersFailed]
		}
		return RenderFailure(res.Failure.Reason, lang)
	}

	r := res.Report
	var b strings.Builder
	line := func(label, value string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(t.sep)
		b.WriteString(value)
	}

	status := t.offline
	if r.Online {
		status = t.online
	}
	line(t.status, status)
	line(t.address, r.Address.String())

	if r.Country != nil {
		line(t.country, *r.Country)
	}
	if r.Description != "" {
		line(t.description, r.Description)
	}
	if r.LatencyMs != nil {
		line(t.latency, strconv.Itoa(*r.LatencyMs)+" ms")
	}
	if r.ProtocolVersion != nil {
		line(t.protocol, strconv.Itoa(*r.ProtocolVersion))
	}
	if r.Version != nil {
		line(t.version, *r.Version)
	}
	if r.PlayersOnline != nil {
		players := strconv.Itoa(*r.PlayersOnline)
		if r.PlayersMax != nil {
			players += "/" + strconv.Itoa(*r.PlayersMax)
		}
		line(t.players, players)
	}
	if r.PlayerNames != nil {
		names := t.none
		if len(r.PlayerNames) > 0 {
			names = strings.Join(r.PlayerNames, ", ")
		}
		line(t.playerList, names)
	}
	if r.WorldName != nil {
		line(t.world, *r.WorldName)
	}
	if r.GameMode != nil {
		line(t.gameMode, *r.GameMode)
	}

	return b.String()
}

// RenderFailure returns the fixed message for a failure reason.
func RenderFailure(reason models.FailureReason, lang Lang) string {
	t := textsFor(lang)
	if msg, ok := t.failures[reason]; ok {
		return msg
	}

	return t.failures[models.ReasonAllProvidersFailed]
}

// RenderInvalidAddress is shown when the user input cannot be parsed.
func RenderInvalidAddress(lang Lang) string {
	return textsFor(lang).invalidAddress
}

// RenderNotBound is shown when a group queries its server without a binding.
func RenderNotBound(lang Lang) string {
	return textsFor(lang).notBound
}

// RenderNotServed is shown for groups outside the configured group filter.
func RenderNotServed(lang Lang) string {
	return textsFor(lang).notServed
}

// RenderBound confirms a new or changed binding.
func RenderBound(addr models.ServerAddress, lang Lang) string {
	return fmt.Sprintf(textsFor(lang).bound, addr.String())
}

// RenderUnbound confirms a removed binding.
func RenderUnbound(lang Lang) string {
	return textsFor(lang).unbound
}

// RenderInternalError is shown when the host side (storage) fails.
func RenderInternalError(lang Lang) string {
	return textsFor(lang).internal
}
