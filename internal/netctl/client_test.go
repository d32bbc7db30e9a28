package netctl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   []byte
}

func newDaemon(t *testing.T, status int, response string) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: body})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: time.Second}), &calls
}

func TestSendPostsArgs(t *testing.T) {
	c, calls := newDaemon(t, http.StatusAccepted, `{"success":true}`)

	require.NoError(t, c.Send(context.Background(), "hstsAdd", "a.test", true, "sha256/x"))
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, "/commands/hstsAdd", call.path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(call.body, &body))
	assert.Equal(t, []any{"a.test", true, "sha256/x"}, body["args"])
}

func TestErrorsCarryDaemonMessage(t *testing.T) {
	c, _ := newDaemon(t, http.StatusNotFound, `{"success":false,"error":"unknown command: \"x\""}`)

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestSetPollInterval(t *testing.T) {
	c, calls := newDaemon(t, http.StatusOK, `{"success":true,"interval_ms":1500}`)

	require.NoError(t, c.SetPollInterval(context.Background(), 1500*time.Millisecond))
	assert.Equal(t, "PUT", (*calls)[0].method)
	assert.JSONEq(t, `{"interval_ms":1500}`, string((*calls)[0].body))
}

func TestEventsSince(t *testing.T) {
	c, calls := newDaemon(t, http.StatusOK, `{"count":0,"entries":[]}`)

	out, err := c.Events(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["count"])
	assert.Equal(t, "since=7", (*calls)[0].query)
}

func TestDumpStreamsBody(t *testing.T) {
	c, calls := newDaemon(t, http.StatusOK, `{"id":"d"}`)

	var buf bytes.Buffer
	require.NoError(t, c.Dump(context.Background(), &buf, "none", "slow"))
	assert.Equal(t, `{"id":"d"}`, buf.String())
	assert.Contains(t, (*calls)[0].query, "compression=none")
}

func TestDumpReportsConflict(t *testing.T) {
	c, _ := newDaemon(t, http.StatusConflict, `{"success":false,"error":"constants not received yet"}`)

	err := c.Dump(context.Background(), io.Discard, "gzip", "")
	require.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "constants not received yet")
}

func TestLoadLogUploadsBody(t *testing.T) {
	c, calls := newDaemon(t, http.StatusOK, `{"success":true,"events_loaded":2}`)

	out, err := c.LoadLog(context.Background(), bytes.NewReader([]byte("dump")), "a.json", "none")
	require.NoError(t, err)
	assert.Equal(t, float64(2), out["events_loaded"])
	assert.Equal(t, []byte("dump"), (*calls)[0].body)
	assert.Contains(t, (*calls)[0].query, "file=a.json")
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"example.com", "example.com"},
		{"true", true},
		{"42", float64(42)},
		{`"42"`, "42"},
		{"[1]", "[1]"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseArg(tt.in), tt.in)
	}
}
