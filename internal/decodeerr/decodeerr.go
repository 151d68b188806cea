// Package decodeerr defines the shared error taxonomy used by the flac and
// adpcm decoders. Both decoders surface failures through the same small set
// of kinds so that a caller driving either codec can dispatch on the failure
// class without caring which bitstream produced it.
package decodeerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a decode failure. Kinds are closed; new bitstream
// conditions should map onto one of these rather than growing the set.
type Kind int

// The error kinds surfaced by the FLAC and IMA ADPCM decoders.
const (
	// UnexpectedEOF means the underlying byte source was exhausted
	// mid-structure.
	UnexpectedEOF Kind = iota
	// InvalidMagic means the stream is missing its required magic bytes
	// ("fLaC", "RIFF" or "WAVE").
	InvalidMagic
	// InvalidHeader means a header field held a reserved or otherwise
	// impossible bit pattern.
	InvalidHeader
	// NotByteAligned means a byte-aligned read was attempted while the bit
	// accumulator still held buffered bits.
	NotByteAligned
	// UnsupportedFeature means the stream is well-formed but exercises a
	// feature this decoder declines to support (mid-stream sample rate
	// change, too many channels, an unrecognized WAVE format tag).
	UnsupportedFeature
	// Corrupt means a structural invariant was violated (e.g. a STREAMINFO
	// block whose length isn't 34).
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case UnexpectedEOF:
		return "unexpected EOF"
	case InvalidMagic:
		return "invalid magic"
	case InvalidHeader:
		return "invalid header"
	case NotByteAligned:
		return "not byte aligned"
	case UnsupportedFeature:
		return "unsupported feature"
	case Corrupt:
		return "corrupt stream"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by both decoders. It pairs a
// Kind with the pipeline stage that raised it and the underlying cause, so
// that Cause (via github.com/pkg/errors) unwraps to the root error while
// Kind lets callers dispatch without string matching.
type Error struct {
	Kind  Kind
	Stage string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause exposes the underlying cause to github.com/pkg/errors' Cause, so
// that it walks past the Error to the root error.
func (e *Error) Cause() error { return e.cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, stage, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Stage: stage, cause: errors.New(msg)})
}

// Newf builds an Error with a formatted message and no wrapped cause.
func Newf(kind Kind, stage, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Stage: stage, cause: errors.Errorf(format, args...)})
}

// Wrap attaches stage and kind context to an existing error (typically one
// returned by the underlying io.Reader). Returns nil if err is nil.
func Wrap(err error, kind Kind, stage string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Stage: stage, cause: err})
}

// As reports whether err is (or wraps) a *Error, writing it to target like
// the standard errors.As.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
