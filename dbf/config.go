package dbf

import (
	"log/slog"

	"github.com/nao1215/dbfsql/domain/model"
)

// Config is the immutable decoding configuration of one reading session.
type Config struct {
	// Codec names the text codec for character fields. Empty means utf-8.
	Codec string
	// Missing is the literal substituted for missing or malformed C, D and L fields.
	// "none" yields null, "na"/"nan" yield NaN, anything else is used verbatim.
	Missing string
	// EscapeQuote, when not empty, replaces every double quote in character
	// fields with EscapeQuote followed by a double quote.
	EscapeQuote string
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by CSV output: utf-8 text,
// empty string sentinel and no quote escaping.
func DefaultConfig() Config {
	return Config{Codec: DefaultCodec}
}

// WithCodec returns a copy with the given text codec
func (c Config) WithCodec(name string) Config {
	c.Codec = name
	return c
}

// WithMissing returns a copy with the given missing value literal
func (c Config) WithMissing(literal string) Config {
	c.Missing = literal
	return c
}

// WithEscapeQuote returns a copy with the given quote escape string
func (c Config) WithEscapeQuote(esc string) Config {
	c.EscapeQuote = esc
	return c
}

// WithLogger returns a copy with the given logger
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	return c
}

// Sentinel returns the parsed missing value sentinel
func (c Config) Sentinel() model.MissingValue {
	return model.ParseMissing(c.Missing)
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
