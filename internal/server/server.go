// Package server carries tool calls to the dispatcher over newline
// delimited JSON on stdio or over websocket frames. Both transports speak
// the same frames: an object is one request, an array is a batch.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
)

// DefaultMaxFrameBytes caps one frame when the config leaves it unset.
const DefaultMaxFrameBytes = 8 << 20

// Server answers frames of tool calls.
type Server struct {
	d      *dispatcher.Dispatcher
	cfg    config.ServerConfig
	logger *slog.Logger
}

// New creates a server around d.
func New(d *dispatcher.Dispatcher, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{d: d, cfg: cfg, logger: logger}
}

// Handle answers one frame. A blank frame has no answer and yields nil.
// Frames that are not JSON get a single failed response.
func (s *Server) Handle(ctx context.Context, frame []byte) []byte {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return nil
	}

	var out any
	switch frame[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(frame, &raw); err != nil {
			out = malformed(err)
			break
		}
		out = s.batch(ctx, raw)
	case '{':
		req, err := decodeRequest(frame)
		if err != nil {
			out = malformed(err)
			break
		}
		out = s.d.Dispatch(ctx, req)
	default:
		out = malformed(fmt.Errorf("frame must be a JSON object or array"))
	}
	return s.encode(out)
}

// batch dispatches the well-formed elements together and slots the
// malformed ones back in at their index.
func (s *Server) batch(ctx context.Context, raw []json.RawMessage) []dispatcher.Response {
	out := make([]dispatcher.Response, len(raw))
	reqs := make([]dispatcher.Request, 0, len(raw))
	index := make([]int, 0, len(raw))
	for i, r := range raw {
		req, err := decodeRequest(r)
		if err != nil {
			out[i] = malformed(fmt.Errorf("element %d: %w", i, err))
			continue
		}
		reqs = append(reqs, req)
		index = append(index, i)
	}
	for j, resp := range s.d.DispatchBatch(ctx, reqs) {
		out[index[j]] = resp
	}
	return out
}

func decodeRequest(data []byte) (dispatcher.Request, error) {
	var req dispatcher.Request
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

func malformed(err error) dispatcher.Response {
	return dispatcher.Response{
		Success: false,
		Error:   "invalid request: " + err.Error(),
		Kind:    dispatcher.KindValidation,
	}
}

func (s *Server) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err == nil {
		return data
	}
	s.logger.Error("failed to encode response", "error", err)
	data, _ = json.Marshal(dispatcher.Response{
		Success: false,
		Error:   "internal error: response could not be encoded",
		Kind:    dispatcher.KindInternal,
	})
	return data
}
