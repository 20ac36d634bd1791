// Package protocol implements the broker's wire format: one JSON object per
// line, UTF-8, newline terminated. Requests carry a cmd and an optional
// req_id that is echoed back in the matching response. Server-initiated
// events never carry a req_id.
package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed marks a line that was read but did not parse as JSON. The
// stream itself is still usable; the caller decides whether to keep reading.
var ErrMalformed = errors.New("malformed message")

// WriteMessage encodes v as a single JSON line and writes it to w.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// ReadMessage blocks until one non-blank line is available and returns its
// raw bytes. It returns io.EOF at end of stream and wraps parse failures in
// ErrMalformed without consuming past the offending line.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(strings.TrimSpace(string(line))) > 0 {
				// final line without trailing newline
			} else {
				return nil, err
			}
		}
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "" {
			continue
		}
		if !json.Valid([]byte(trimmed)) {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, trimmed)
		}
		return []byte(trimmed), nil
	}
}
