package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/constants/constantstest"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
)

// answeringHost replies to every feed refresh with the feed's name.
type answeringHost struct {
	bridge *bridge.Bridge
	silent bool
}

func (h *answeringHost) Send(msg bridge.Outbound) error {
	name := string(msg.Command)
	if h.silent || !strings.HasPrefix(name, "get") {
		return nil
	}
	go h.bridge.Dispatch("received"+name[3:], name[3:])
	return nil
}

func setup(t *testing.T, silent bool) (*Exporter, *bridge.Bridge, *events.Tracker) {
	t.Helper()
	host := &answeringHost{silent: silent}
	b := bridge.New(host, bridge.Options{Platform: bridge.PlatformLinux})
	host.bridge = b
	tracker := events.NewTracker(100)
	b.WithLogSink(tracker)
	return New(b, tracker, time.Second, nil), b, tracker
}

func TestBuildRequiresConstants(t *testing.T) {
	exp, _, _ := setup(t, true)

	_, err := exp.Build(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoConstants)
}

func TestBuildCollectsEveryFeed(t *testing.T) {
	exp, b, _ := setup(t, false)
	require.NoError(t, b.Dispatch("receivedConstants", constantstest.Payload()))
	require.NoError(t, b.Dispatch("receivedLogEntries", []any{map[string]any{"type": float64(1)}}))

	dump, err := exp.Build(context.Background(), Request{UserComments: "slow page"})
	require.NoError(t, err)

	assert.False(t, dump.Partial)
	assert.Len(t, dump.PolledData, len(b.Feeds()))
	assert.Equal(t, "ProxySettings", dump.PolledData["proxySettings"])
	assert.Equal(t, "slow page", dump.UserComments)
	assert.Len(t, dump.Events, 1)
	assert.Equal(t, float64(1), dump.Constants["logFormatVersion"])
	assert.Len(t, dump.ID, 36)
}

func TestBuildFallsBackOnDeadline(t *testing.T) {
	exp, b, _ := setup(t, true)
	require.NoError(t, b.Dispatch("receivedConstants", constantstest.Payload()))
	require.NoError(t, b.Dispatch("receivedSpdyStatus", "known"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	dump, err := exp.Build(ctx, Request{})
	require.NoError(t, err)

	assert.True(t, dump.Partial)
	assert.Equal(t, map[string]any{"spdyStatus": "known"}, dump.PolledData)
}

func TestBuildUsesLastValuesWhenDisabled(t *testing.T) {
	exp, b, _ := setup(t, false)
	require.NoError(t, b.Dispatch("receivedConstants", constantstest.Payload()))
	require.NoError(t, b.Dispatch("receivedBadProxies", []any{}))
	b.Disable()

	dump, err := exp.Build(context.Background(), Request{})
	require.NoError(t, err)

	assert.False(t, dump.Partial)
	assert.Equal(t, map[string]any{"badProxies": []any{}}, dump.PolledData)
}

func TestBuildStripsPrivateData(t *testing.T) {
	exp, b, tracker := setup(t, true)
	require.NoError(t, b.Dispatch("receivedConstants", constantstest.Payload()))
	b.Disable()

	entry := map[string]any{
		"type": float64(3),
		"params": map[string]any{
			"headers": []any{"Host: example.com", "Cookie: session=secret"},
		},
	}
	tracker.AddLogEntries([]any{entry})

	stripped, err := exp.Build(context.Background(), Request{PrivacyStripping: true})
	require.NoError(t, err)
	headers := stripped.Events[0].(map[string]any)["params"].(map[string]any)["headers"]
	assert.Equal(t, []any{"Host: example.com", "Cookie: " + strippedValue}, headers)

	raw, err := exp.Build(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, entry, raw.Events[0])
}

func TestStripPrivateData(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"not an object", "text", "text"},
		{"no params", map[string]any{"type": 1}, map[string]any{"type": 1}},
		{
			"header lines",
			map[string]any{"params": map[string]any{"headers": []any{
				"set-cookie: a=b", "Proxy-Authorization: Basic Zm9v", "Accept: */*",
			}}},
			map[string]any{"params": map[string]any{"headers": []any{
				"set-cookie: " + strippedValue, "Proxy-Authorization: " + strippedValue, "Accept: */*",
			}}},
		},
		{
			"header block",
			map[string]any{"params": map[string]any{"headers": "GET / HTTP/1.1\r\nAuthorization: Bearer x\r\n"}},
			map[string]any{"params": map[string]any{"headers": "GET / HTTP/1.1\r\nAuthorization: " + strippedValue + "\r\n"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripPrivateData(tt.in))
		})
	}
}

func TestEncodeCompressed(t *testing.T) {
	dump := &Dump{
		ID:          "3f1c2b7e-0000-4000-8000-000000000000",
		Constants:   map[string]any{"logFormatVersion": float64(1)},
		Events:      []any{"e"},
		PolledData:  map[string]any{"spdyStatus": "on"},
		NumericDate: 1700000000000,
	}

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		var buf bytes.Buffer
		require.NoError(t, dump.Encode(&buf, c), c)

		decoded, err := Decode(&buf, c)
		require.NoError(t, err, c)
		assert.Equal(t, dump, decoded, c)
	}

	var buf bytes.Buffer
	require.NoError(t, dump.Encode(&buf, CompressionGzip))
	assert.Equal(t, []byte{0x1f, 0x8b}, buf.Bytes()[:2])

	assert.ErrorIs(t, dump.Encode(&buf, Compression("lz4")), ErrUnknownCompression)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	c, err = ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, ".json.zst", c.Extension())

	_, err = ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	dump := &Dump{ID: "3f1c2b7e-0000-4000-8000-000000000000", NumericDate: 1700000000000}

	path, err := dump.Save(dir, CompressionGzip)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "net-internals-20231114-221320-3f1c2b7e.json.gz"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := Decode(f, CompressionGzip)
	require.NoError(t, err)
	assert.Equal(t, dump.ID, decoded.ID)
}

func TestSaveShortIDs(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", "net-internals-20231114-221320-dump.json"},
		{"abc", "net-internals-20231114-221320-abc.json"},
		{"12345678-rest", "net-internals-20231114-221320-12345678.json"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			dir := t.TempDir()
			dump := &Dump{ID: tt.id, NumericDate: 1700000000000}

			path, err := dump.Save(dir, CompressionNone)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), path)
		})
	}
}
