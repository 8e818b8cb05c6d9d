package dbf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultCodec is the text codec used when none is configured
const DefaultCodec = "utf-8"

var errInvalidText = errors.New("invalid text for codec")

// Codec decodes character field bytes into UTF-8 strings.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// LookupCodec resolves a codec by IANA or WHATWG name, for example
// "utf-8", "cp1252", "latin1", "cp437" or "shift_jis".
func LookupCodec(name string) (*Codec, error) {
	if name == "" {
		name = DefaultCodec
	}
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8":
		return &Codec{name: DefaultCodec}, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(name)
	}
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, name)
	}
	return &Codec{name: name, enc: enc}, nil
}

// Name returns the configured codec name
func (c *Codec) Name() string {
	return c.name
}

// Decode converts raw bytes into a UTF-8 string.
// Invalid UTF-8 input for the utf-8 codec is an error; single byte codecs never fail.
func (c *Codec) Decode(b []byte) (string, error) {
	if c.enc == nil {
		if !utf8.Valid(b) {
			return "", errInvalidText
		}
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidText, err)
	}
	return string(out), nil
}
