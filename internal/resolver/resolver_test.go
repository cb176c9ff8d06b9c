package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/mcmotd/internal/config"
	"github.com/woozymasta/mcmotd/internal/models"
	"github.com/woozymasta/mcmotd/internal/provider"
)

// fakeFetcher returns canned payloads or errors per provider and records call order.
type fakeFetcher struct {
	payloads map[provider.ID]provider.Payload
	errs     map[provider.ID]error
	calls    []provider.ID
}

func (f *fakeFetcher) Fetch(_ context.Context, id provider.ID, _ models.ServerAddress) (provider.Payload, error) {
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	if p, ok := f.payloads[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no fake for %s", provider.ErrTransport, id)
}

type fakeLocator string

func (l fakeLocator) CountryCode(context.Context, string) string { return string(l) }

func blackbe(t *testing.T, body string) provider.Payload {
	t.Helper()
	var p provider.BlackBEPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return &p
}

func mcapi(t *testing.T, body string) provider.Payload {
	t.Helper()
	var p provider.MCAPIPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return &p
}

var (
	addr         = models.ServerAddress{Host: "mc.example.com", Port: 25565}
	transportErr = fmt.Errorf("%w: connection refused", provider.ErrTransport)
)

func ptr[T any](v T) *T { return &v }

func TestResolve_PrimaryOnline(t *testing.T) {
	f := &fakeFetcher{payloads: map[provider.ID]provider.Payload{
		provider.BlackBE: blackbe(t, `{"status":"online","motd":"§bHypixel§r Network",
			"players":{"online":42000,"max":200000},"version":"1.8-1.20"}`),
	}}

	res := New(f).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Equal(t, []provider.ID{provider.BlackBE}, f.calls)

	want := &models.StatusReport{
		Online:        true,
		Address:       addr,
		Provider:      "blackbe",
		Description:   "Hypixel Network",
		Version:       ptr("1.8-1.20"),
		PlayersOnline: ptr(42000),
		PlayersMax:    ptr(200000),
	}
	if diff := cmp.Diff(want, res.Report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_PrimaryTransportFailSecondaryOnline(t *testing.T) {
	f := &fakeFetcher{
		errs: map[provider.ID]error{provider.BlackBE: transportErr},
		payloads: map[provider.ID]provider.Payload{
			provider.MCAPI: mcapi(t, `{"status":"在线","motd":"Java §cserver","version":"1.20.1",
				"players_online":1,"players_max":10,"players":["Steve"]}`),
		},
	}

	res := New(f).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Equal(t, []provider.ID{provider.BlackBE, provider.MCAPI}, f.calls)

	want := &models.StatusReport{
		Online:        true,
		Address:       addr,
		Provider:      "mcapi",
		Description:   "Java server",
		Version:       ptr("1.20.1"),
		PlayersOnline: ptr(1),
		PlayersMax:    ptr(10),
		PlayerNames:   []string{"Steve"},
	}
	if diff := cmp.Diff(want, res.Report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_PrimaryOfflineFallsBack(t *testing.T) {
	f := &fakeFetcher{payloads: map[provider.ID]provider.Payload{
		provider.BlackBE: blackbe(t, `{"status":"offline"}`),
		provider.MCAPI:   mcapi(t, `{"status":"在线","motd":"up"}`),
	}}

	res := New(f).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Equal(t, "mcapi", res.Report.Provider)
	assert.Nil(t, res.Report.PlayerNames)
	assert.Nil(t, res.Report.PlayersOnline)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name      string
		fetcher   *fakeFetcher
		want      models.FailureReason
		wantCalls []provider.ID
	}{
		{
			name: "both offline",
			fetcher: &fakeFetcher{payloads: map[provider.ID]provider.Payload{
				provider.BlackBE: blackbe(t, `{"status":"offline"}`),
				provider.MCAPI:   mcapi(t, `{"status":"离线"}`),
			}},
			want:      models.ReasonServerOffline,
			wantCalls: []provider.ID{provider.BlackBE, provider.MCAPI},
		},
		{
			name: "both transport fail",
			fetcher: &fakeFetcher{errs: map[provider.ID]error{
				provider.BlackBE: transportErr,
				provider.MCAPI:   transportErr,
			}},
			want:      models.ReasonAllProvidersFailed,
			wantCalls: []provider.ID{provider.BlackBE, provider.MCAPI},
		},
		{
			name: "primary offline, secondary transport fail",
			fetcher: &fakeFetcher{
				payloads: map[provider.ID]provider.Payload{provider.BlackBE: blackbe(t, `{"status":"offline"}`)},
				errs:     map[provider.ID]error{provider.MCAPI: transportErr},
			},
			want:      models.ReasonAllProvidersFailed,
			wantCalls: []provider.ID{provider.BlackBE, provider.MCAPI},
		},
		{
			name: "primary transport fail, secondary offline",
			fetcher: &fakeFetcher{
				errs:     map[provider.ID]error{provider.BlackBE: transportErr},
				payloads: map[provider.ID]provider.Payload{provider.MCAPI: mcapi(t, `{"status":"离线"}`)},
			},
			want:      models.ReasonServerOffline,
			wantCalls: []provider.ID{provider.BlackBE, provider.MCAPI},
		},
		{
			name: "malformed primary stops the chain",
			fetcher: &fakeFetcher{payloads: map[provider.ID]provider.Payload{
				provider.BlackBE: blackbe(t, `{"motd":"no status"}`),
				provider.MCAPI:   mcapi(t, `{"status":"在线"}`),
			}},
			want:      models.ReasonMalformedResponse,
			wantCalls: []provider.ID{provider.BlackBE},
		},
		{
			name: "mistyped primary payload stops the chain",
			fetcher: &fakeFetcher{
				errs:     map[provider.ID]error{provider.BlackBE: fmt.Errorf("blackbe body: %w", provider.ErrMalformed)},
				payloads: map[provider.ID]provider.Payload{provider.MCAPI: mcapi(t, `{"status":"在线"}`)},
			},
			want:      models.ReasonMalformedResponse,
			wantCalls: []provider.ID{provider.BlackBE},
		},
		{
			name: "malformed secondary",
			fetcher: &fakeFetcher{payloads: map[provider.ID]provider.Payload{
				provider.BlackBE: blackbe(t, `{"status":"offline"}`),
				provider.MCAPI:   mcapi(t, `{"status":""}`),
			}},
			want:      models.ReasonMalformedResponse,
			wantCalls: []provider.ID{provider.BlackBE, provider.MCAPI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.fetcher).Resolve(context.Background(), addr)
			require.False(t, res.OK())
			require.NotNil(t, res.Failure)
			assert.Equal(t, tt.want, res.Failure.Reason)
			assert.Equal(t, addr, res.Failure.Address)
			assert.Equal(t, tt.wantCalls, tt.fetcher.calls)
		})
	}
}

func TestResolve_CancelledContextIsUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	res := New(f).Resolve(ctx, addr)
	require.NotNil(t, res.Failure)
	assert.Equal(t, models.ReasonUnreachable, res.Failure.Reason)
	assert.Empty(t, f.calls)
}

// cancelOnFetch cancels the caller's context while the given provider is being queried.
type cancelOnFetch struct {
	cancel context.CancelFunc
	at     provider.ID
}

func (c cancelOnFetch) Fetch(_ context.Context, id provider.ID, _ models.ServerAddress) (provider.Payload, error) {
	if id == c.at {
		c.cancel()
	}
	return nil, transportErr
}

func TestResolve_ContextEndedDuringLastLookupIsUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := New(cancelOnFetch{cancel: cancel, at: provider.MCAPI}).Resolve(ctx, addr)
	require.NotNil(t, res.Failure)
	assert.Equal(t, models.ReasonUnreachable, res.Failure.Reason)
}

func TestResolve_MistypedPayloadOverHTTP(t *testing.T) {
	var calls atomic.Int32
	api := func(body string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	primary := api(`{"status":"online","motd":{"text":"chat component"}}`)
	secondary := api(`{"status":"在线","players":[{"name":"Steve"}]}`)

	client := provider.New(config.Provider{
		PrimaryURL:   primary.URL,
		SecondaryURL: secondary.URL,
		Timeout:      time.Second,
	})
	res := New(client).Resolve(context.Background(), addr)

	require.NotNil(t, res.Failure)
	assert.Equal(t, models.ReasonMalformedResponse, res.Failure.Reason)
	assert.Equal(t, int32(1), calls.Load())
}

// blockingLocator waits for its context and reports what ended the lookup.
type blockingLocator struct {
	done chan error
}

func (l blockingLocator) CountryCode(ctx context.Context, _ string) string {
	<-ctx.Done()
	l.done <- ctx.Err()
	return "DE"
}

func TestResolve_LocatorIsBounded(t *testing.T) {
	f := &fakeFetcher{payloads: map[provider.ID]provider.Payload{
		provider.BlackBE: blackbe(t, `{"status":"online"}`),
	}}
	loc := blockingLocator{done: make(chan error, 1)}

	start := time.Now()
	res := New(f, WithLocator(loc), WithLocateTimeout(20*time.Millisecond)).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-loc.done, context.DeadlineExceeded)
}

func TestResolve_LocatorAddsCountry(t *testing.T) {
	f := &fakeFetcher{payloads: map[provider.ID]provider.Payload{
		provider.BlackBE: blackbe(t, `{"status":"online"}`),
	}}

	res := New(f, WithLocator(fakeLocator("DE"))).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	require.NotNil(t, res.Report.Country)
	assert.Equal(t, "DE", *res.Report.Country)

	res = New(f, WithLocator(fakeLocator(""))).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Nil(t, res.Report.Country)
}

func TestResolve_WithChain(t *testing.T) {
	f := &fakeFetcher{payloads: map[provider.ID]provider.Payload{
		provider.MCAPI: mcapi(t, `{"status":"在线"}`),
	}}

	res := New(f, WithChain(provider.MCAPI, provider.BlackBE)).Resolve(context.Background(), addr)
	require.True(t, res.OK())
	assert.Equal(t, []provider.ID{provider.MCAPI}, f.calls)
}

func TestNormalize_BlackBEFullPayload(t *testing.T) {
	p := blackbe(t, `{"status":"online","host":"mc.example.com","motd":"§l§aBedrock  ",
		"agreement":589,"version":"1.20.40","online":3,"max":20,"level_name":"world",
		"gamemode":"Survival","delay":"37"}`)

	got, err := Normalize(p, addr)
	require.NoError(t, err)

	want := &models.StatusReport{
		Online:          true,
		Address:         addr,
		Provider:        "blackbe",
		Description:     "Bedrock",
		Version:         ptr("1.20.40"),
		ProtocolVersion: ptr(589),
		PlayersOnline:   ptr(3),
		PlayersMax:      ptr(20),
		WorldName:       ptr("world"),
		GameMode:        ptr("Survival"),
		LatencyMs:       ptr(37),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_VerifiedEmptyPlayerList(t *testing.T) {
	got, err := Normalize(mcapi(t, `{"status":"在线","players":[]}`), addr)
	require.NoError(t, err)
	assert.NotNil(t, got.PlayerNames)
	assert.Empty(t, got.PlayerNames)
}

func TestNormalize_BlankFieldsStayAbsent(t *testing.T) {
	got, err := Normalize(blackbe(t, `{"status":"online","version":"  ","level_name":""}`), addr)
	require.NoError(t, err)
	assert.Nil(t, got.Version)
	assert.Nil(t, got.WorldName)
	assert.Nil(t, got.PlayersOnline)
}
