package console

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// MaxLineLength bounds one command line, terminator included.
const MaxLineLength = 1024

// ErrLineTooLong is returned by ReadFrame for lines over MaxLineLength.
var ErrLineTooLong = errors.New("line too long")

// ReadFrame reads one newline-terminated frame from r and returns it without
// the trailing "\n" or "\r\n". r must be sized at least MaxLineLength.
// The returned slice is only valid until the next read.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, ErrLineTooLong
	}
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, nil
}

// WriteFrame writes data followed by "\n".
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Codec converts between wire bytes and Go strings. Operators on legacy
// terminals can run the console in big5, gbk or any other WHATWG encoding.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// NewCodec looks up an encoding by its WHATWG name or alias.
func NewCodec(name string) (*Codec, error) {
	if name == "" {
		name = "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("console encoding %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return &Codec{name: canonical, enc: enc}, nil
}

func (c *Codec) Name() string { return c.name }

// Decode turns wire bytes into a string.
func (c *Codec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

// Encode turns a string into wire bytes.
func (c *Codec) Encode(s string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}
