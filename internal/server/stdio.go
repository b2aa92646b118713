package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// ServeStdio reads one frame per line from r and writes one answer per
// line to w, in order. It returns when r is exhausted or ctx is done.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		limit := int(s.cfg.MaxFrameBytes)
		sc.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	out := bufio.NewWriter(w)
	s.logger.Info("serving on stdio")
	for {
		select {
		case <-ctx.Done():
			return out.Flush()
		case line, ok := <-lines:
			if !ok {
				if err := out.Flush(); err != nil {
					return err
				}
				select {
				case err := <-scanErr:
					if errors.Is(err, bufio.ErrTooLong) {
						return fmt.Errorf("frame exceeds %d bytes: %w", s.cfg.MaxFrameBytes, err)
					}
					return err
				default:
					return nil
				}
			}
			resp := s.Handle(ctx, line)
			if resp == nil {
				continue
			}
			if _, err := out.Write(append(resp, '\n')); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}
