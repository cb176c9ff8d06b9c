package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/mcmotd/internal/address"
	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/provider"
	"github.com/woozymasta/mcmotd/internal/resolver"
)

func ptr[T any](v T) *T { return &v }

var testAddr = models.ServerAddress{Host: "mc.example.com", Port: 19132}

func TestRender_FullReportOrder(t *testing.T) {
	res := models.Result{Report: &models.StatusReport{
		Online:          true,
		Address:         testAddr,
		Country:         ptr("DE"),
		Description:     "Hello",
		LatencyMs:       ptr(12),
		ProtocolVersion: ptr(589),
		Version:         ptr("1.20.40"),
		PlayersOnline:   ptr(3),
		PlayersMax:      ptr(20),
		PlayerNames:     []string{"Steve", "Alex"},
		WorldName:       ptr("world"),
		GameMode:        ptr("Survival"),
	}}

	want := strings.Join([]string{
		"Status: online",
		"Address: mc.example.com:19132",
		"Country: DE",
		"Description: Hello",
		"Latency: 12 ms",
		"Protocol version: 589",
		"Game version: 1.20.40",
		"Players: 3/20",
		"Player list: Steve, Alex",
		"World: world",
		"Game mode: Survival",
	}, "\n")

	assert.Equal(t, want, Render(res, LangEN))
}

func TestRender_OmitsUnknownFields(t *testing.T) {
	res := models.Result{Report: &models.StatusReport{
		Online:  true,
		Address: testAddr,
	}}

	got := Render(res, LangZH)
	assert.Equal(t, "状态: 在线\n地址: mc.example.com:19132", got)
	assert.NotContains(t, got, "玩家列表")
	assert.NotContains(t, got, "<nil>")
}

func TestRender_PlayerList(t *testing.T) {
	t.Run("missing list is omitted", func(t *testing.T) {
		got := Render(models.Result{Report: &models.StatusReport{Online: true, Address: testAddr, PlayersOnline: ptr(0)}}, LangEN)
		assert.NotContains(t, got, "Player list")
		assert.Contains(t, got, "Players: 0")
	})

	t.Run("verified empty list", func(t *testing.T) {
		got := Render(models.Result{Report: &models.StatusReport{Online: true, Address: testAddr, PlayerNames: []string{}}}, LangEN)
		assert.Contains(t, got, "Player list: none")
	})

	t.Run("max without online count is skipped", func(t *testing.T) {
		got := Render(models.Result{Report: &models.StatusReport{Online: true, Address: testAddr, PlayersMax: ptr(20)}}, LangEN)
		assert.NotContains(t, got, "Players")
	})
}

func TestRender_FailuresAreDistinct(t *testing.T) {
	reasons := []models.FailureReason{
		models.ReasonServerOffline,
		models.ReasonAllProvidersFailed,
		models.ReasonMalformedResponse,
		models.ReasonUnreachable,
	}

	for _, lang := range []Lang{LangZH, LangEN} {
		seen := map[string]models.FailureReason{}
		for _, reason := range reasons {
			msg := Render(models.Result{Failure: &models.ResolutionFailure{Reason: reason, Address: testAddr}}, lang)
			require.NotEmpty(t, msg)
			if other, dup := seen[msg]; dup {
				t.Fatalf("%s: %s and %s share message %q", lang, reason, other, msg)
			}
			seen[msg] = reason
		}
	}
}

func TestRender_UnknownLangFallsBack(t *testing.T) {
	res := models.Result{Failure: &models.ResolutionFailure{Reason: models.ReasonServerOffline}}
	assert.Equal(t, Render(res, DefaultLang), Render(res, Lang("xx")))
}

func TestMatchLang(t *testing.T) {
	tests := []struct {
		header string
		want   Lang
	}{
		{"", LangZH},
		{"en-US,en;q=0.9", LangEN},
		{"zh-CN,zh;q=0.9,en;q=0.8", LangZH},
		{"fr-FR", LangZH},
		{"not a header;;;", LangZH},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLang(tt.header, LangZH))
		})
	}
}

func TestParseLang(t *testing.T) {
	assert.Equal(t, LangEN, ParseLang(" EN ", LangZH))
	assert.Equal(t, LangZH, ParseLang("zh", LangEN))
	assert.Equal(t, LangEN, ParseLang("de", LangEN))
}

func TestEndToEnd_HypixelPrimaryOnline(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mc.hypixel.net:19132", r.URL.Query().Get("host"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"online","motd":"§bHypixel§r Network",
			"players":{"online":42000,"max":200000},"version":"1.8-1.20"}`))
	}))
	t.Cleanup(primary.Close)

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("secondary provider must not be queried when the primary reports online")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(secondary.Close)

	addr, err := address.Parse("mc.hypixel.net")
	require.NoError(t, err)

	client := provider.New(config.Provider{
		PrimaryURL:   primary.URL,
		SecondaryURL: secondary.URL,
		Timeout:      2 * time.Second,
	})
	res := resolver.New(client).Resolve(context.Background(), addr)
	require.True(t, res.OK())

	out := Render(res, LangZH)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines, "描述: Hypixel Network")
	assert.Contains(t, lines, "在线人数: 42000/200000")
	assert.Contains(t, lines, "游戏版本: 1.8-1.20")
	assert.NotContains(t, out, "玩家列表")

	en := Render(res, LangEN)
	assert.Contains(t, strings.Split(en, "\n"), "Description: Hypixel Network")
	assert.Contains(t, strings.Split(en, "\n"), "Players: 42000/200000")
}
