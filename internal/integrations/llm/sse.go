package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const doneSentinel = "[DONE]"

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SSEWriter emits text deltas as chat-completion style server-sent events.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers when w is an
// http.ResponseWriter.
func NewSSEWriter(w io.Writer) *SSEWriter {
	if rw, ok := w.(http.ResponseWriter); ok {
		h := rw.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
	}
	f, _ := w.(http.Flusher)
	return &SSEWriter{w: w, flusher: f}
}

// Delta writes one content chunk.
func (s *SSEWriter) Delta(text string) error {
	payload, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": text}}},
	})
	if err != nil {
		return err
	}
	return s.write("data: " + string(payload) + "\n\n")
}

// Error writes an error event. The stream should be ended with Done
// afterwards.
func (s *SSEWriter) Error(msg string) error {
	payload, err := json.Marshal(map[string]any{"error": map[string]string{"message": msg}})
	if err != nil {
		return err
	}
	return s.write("event: error\ndata: " + string(payload) + "\n\n")
}

func (s *SSEWriter) Done() error {
	return s.write("data: " + doneSentinel + "\n\n")
}

func (s *SSEWriter) write(frame string) error {
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// UpstreamError is an error event received in a stream.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return "upstream error: " + e.Message
}

// Decoder turns an event stream, delivered in arbitrary chunks, back into
// text deltas. Lines may be split anywhere, including inside a JSON payload
// or between '\r' and '\n'. Comments, blank keep-alives and fields other
// than data are skipped, as are data lines that are not valid JSON.
type Decoder struct {
	buf  []byte
	done bool
}

// Feed consumes one chunk and returns the deltas completed by it. After the
// sentinel is seen further input is ignored.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	if d.done {
		return nil, nil
	}
	d.buf = append(d.buf, chunk...)

	var out []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(d.buf[:i]), "\r")
		d.buf = d.buf[i+1:]

		text, err := d.line(line)
		if err != nil {
			return out, err
		}
		if text != "" {
			out = append(out, text)
		}
		if d.done {
			d.buf = nil
			break
		}
	}
	return out, nil
}

// Close flushes a final unterminated line.
func (d *Decoder) Close() ([]string, error) {
	if d.done || len(d.buf) == 0 {
		return nil, nil
	}
	line := strings.TrimSuffix(string(d.buf), "\r")
	d.buf = nil
	text, err := d.line(line)
	if err != nil || text == "" {
		return nil, err
	}
	return []string{text}, nil
}

// Done reports whether the sentinel has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) line(line string) (string, error) {
	if !strings.HasPrefix(line, "data:") {
		return "", nil
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if data == "" {
		return "", nil
	}
	if data == doneSentinel {
		d.done = true
		return "", nil
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", nil
	}
	if chunk.Error != nil {
		return "", &UpstreamError{Message: chunk.Error.Message}
	}
	var b strings.Builder
	for _, c := range chunk.Choices {
		b.WriteString(c.Delta.Content)
	}
	return b.String(), nil
}

// ReadStream decodes r until the sentinel or EOF, calling fn for every
// delta.
func ReadStream(r io.Reader, fn func(string) error) error {
	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			deltas, err := dec.Feed(buf[:n])
			for _, d := range deltas {
				if err := fn(d); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}
			if dec.Done() {
				return nil
			}
		}
		if errors.Is(readErr, io.EOF) {
			deltas, err := dec.Close()
			for _, d := range deltas {
				if err := fn(d); err != nil {
					return err
				}
			}
			return err
		}
		if readErr != nil {
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}
}
