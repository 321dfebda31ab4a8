package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// readChunkSize bounds a single Read from the response body.
const readChunkSize = 4096

type payload struct {
	Output *string `json:"output"`
}

// Decoder accumulates a streamed response whose full text, once complete,
// is a JSON object carrying an "output" field. Every successful decode
// replaces the previous value; the payload holds the whole reply each time.
//
// Nesting is tracked over new bytes only, so a full decode is attempted just
// when a closing brace brings the top-level object back to depth zero.
type Decoder struct {
	buf     bytes.Buffer
	depth   int
	inStr   bool
	escaped bool

	latest  string
	decoded bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset drops the buffered response.
func (d *Decoder) Reset() {
	d.buf.Reset()
	d.depth = 0
	d.inStr = false
	d.escaped = false
	d.latest = ""
	d.decoded = false
}

// Feed appends chunk and returns the latest output when the buffer now
// decodes. Incomplete buffers are not an error.
func (d *Decoder) Feed(chunk []byte) (string, bool) {
	d.buf.Write(chunk)

	candidate := false
	for _, b := range chunk {
		if d.scan(b) {
			candidate = true
		}
	}
	if !candidate {
		return "", false
	}

	var p payload
	if err := json.Unmarshal(d.buf.Bytes(), &p); err != nil || p.Output == nil {
		return "", false
	}
	d.latest = *p.Output
	d.decoded = true
	return d.latest, true
}

// Latest returns the last decoded output and whether any decode succeeded.
func (d *Decoder) Latest() (string, bool) {
	return d.latest, d.decoded
}

// Buffered returns the number of bytes accumulated so far.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}

// Consume reads r until EOF, calling emit after each successful decode.
// It returns the final output, a DecodeError when nothing decoded, or the
// read error that interrupted the stream.
func (d *Decoder) Consume(r io.Reader, emit func(string)) (string, error) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if text, ok := d.Feed(chunk[:n]); ok && emit != nil {
				emit(text)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.latest, err
		}
	}
	if !d.decoded {
		return "", &DecodeError{Buffered: d.buf.Len()}
	}
	return d.latest, nil
}

// scan advances the nesting state by one byte and reports whether the byte
// closed the top-level object.
func (d *Decoder) scan(b byte) bool {
	if d.inStr {
		switch {
		case d.escaped:
			d.escaped = false
		case b == '\\':
			d.escaped = true
		case b == '"':
			d.inStr = false
		}
		return false
	}
	switch b {
	case '"':
		d.inStr = true
	case '{', '[':
		d.depth++
	case '}', ']':
		d.depth--
		return b == '}' && d.depth == 0
	}
	return false
}
