package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/logging"
)

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	logger := logging.NewSlogManager().Logger()
	d, err := dispatcher.New(logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	d.Register("echo", func(_ context.Context, e dispatcher.Event) (any, error) {
		var args map[string]any
		if err := e.Decode(&args); err != nil {
			return nil, err
		}
		return args, nil
	})
	d.Register("fail", func(context.Context, dispatcher.Event) (any, error) {
		return nil, errors.New("boom")
	})
	return New(d, cfg, logger)
}

func decodeOne(t *testing.T, data []byte) dispatcher.Response {
	t.Helper()
	var resp dispatcher.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func decodeMany(t *testing.T, data []byte) []dispatcher.Response {
	t.Helper()
	var resps []dispatcher.Response
	require.NoError(t, json.Unmarshal(data, &resps))
	return resps
}

func TestHandle_Single(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	resp := decodeOne(t, s.Handle(context.Background(), []byte(`{"id": 7, "tool": "echo", "args": {"a": 1}}`)))
	assert.True(t, resp.Success)
	assert.Equal(t, "7", string(resp.ID))
	assert.Equal(t, map[string]any{"a": 1.0}, resp.Result)

	resp = decodeOne(t, s.Handle(context.Background(), []byte(`{"tool": "fail"}`)))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
	assert.Equal(t, dispatcher.KindInternal, resp.Kind)
}

func TestHandle_Malformed(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{"tool": `},
		{"scalar", `42`},
		{"unknown field", `{"tool": "echo", "extra": true}`},
		{"bad array", `[1, 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeOne(t, s.Handle(context.Background(), []byte(tt.frame)))
			assert.False(t, resp.Success)
			assert.Equal(t, dispatcher.KindValidation, resp.Kind)
			assert.Contains(t, resp.Error, "invalid request")
		})
	}

	assert.Nil(t, s.Handle(context.Background(), []byte("   \t")))
}

func TestHandle_Batch(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	resps := decodeMany(t, s.Handle(context.Background(), []byte(`[
		{"id": 1, "tool": "echo", "args": {"x": "y"}},
		{"id": 2, "tool": "fail"},
		"not a request",
		{"id": 4, "tool": "nope"}
	]`)))
	require.Len(t, resps, 4)

	assert.True(t, resps[0].Success)
	assert.Equal(t, "1", string(resps[0].ID))
	assert.False(t, resps[1].Success)
	assert.Equal(t, "2", string(resps[1].ID))
	assert.Equal(t, dispatcher.KindValidation, resps[2].Kind)
	assert.Contains(t, resps[2].Error, "element 2")
	assert.Equal(t, dispatcher.KindUnknownTool, resps[3].Kind)

	assert.Empty(t, decodeMany(t, s.Handle(context.Background(), []byte(`[]`))))
}

func TestServeStdio(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	in := strings.NewReader(strings.Join([]string{
		`{"id": "a", "tool": "echo", "args": {"n": 1}}`,
		``,
		`[{"id": "b", "tool": "echo"}, {"id": "c", "tool": "fail"}]`,
		`garbage`,
	}, "\n"))
	var out bytes.Buffer
	require.NoError(t, s.ServeStdio(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"a"`, string(decodeOne(t, []byte(lines[0])).ID))
	batch := decodeMany(t, []byte(lines[1]))
	require.Len(t, batch, 2)
	assert.True(t, batch[0].Success)
	assert.False(t, batch[1].Success)
	assert.Equal(t, dispatcher.KindValidation, decodeOne(t, []byte(lines[2])).Kind)
}

func TestServeStdio_FrameTooLong(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{MaxFrameBytes: 16})

	in := strings.NewReader(`{"tool": "echo", "args": {"long": "xxxxxxxxxxxxxxxxxxxxx"}}` + "\n")
	err := s.ServeStdio(context.Background(), in, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestServeStdio_Cancelled(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeStdio(ctx, r, &bytes.Buffer{}) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ServeStdio did not return after cancel")
	}
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWebsocket(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{Path: "/ws", Secret: "s3cret"})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, resp, err := ws.DefaultDialer.Dial(wsURL(srv, "/ws?secret=wrong"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := ws.DefaultDialer.Dial(wsURL(srv, "/ws?secret=s3cret"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"id": 1, "tool": "echo", "args": {"k": "v"}}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	got := decodeOne(t, data)
	assert.True(t, got.Success)
	assert.Equal(t, map[string]any{"k": "v"}, got.Result)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`[{"id": 2, "tool": "echo"}, {"id": 3, "tool": "fail"}]`)))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	batch := decodeMany(t, data)
	require.Len(t, batch, 2)
	assert.Equal(t, "2", string(batch[0].ID))
	assert.False(t, batch[1].Success)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return")
	}
}

