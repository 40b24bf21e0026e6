package output

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/phishguard/phishguard/internal/model"
)

// JSONLWriter writes one ScanResult per line as JSON. Safe for concurrent use.
type JSONLWriter struct {
	w  *bufio.Writer
	mu sync.Mutex
}

// NewJSONLWriter wraps an io.Writer with buffering.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes a single result as a JSON line.
func (j *JSONLWriter) Write(res *model.ScanResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	enc := json.NewEncoder(j.w)
	// For stable lines without extra spaces.
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// Flush flushes the underlying buffer.
func (j *JSONLWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Flush()
}

// Close flushes the buffer; keep the signature similar to io.Closer.
func (j *JSONLWriter) Close() error {
	return j.Flush()
}
