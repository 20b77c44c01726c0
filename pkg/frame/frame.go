package frame

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robotalks/thermlink/pkg/thermal"
)

// Separator splits label and value.
const Separator = ":"

// Format formats a frame line including the trailing newline.
func Format(label string, celsius float64) string {
	return fmt.Sprintf("%s%s%.1f\n", label, Separator, celsius)
}

// Encode encodes a reading. Only the label and the value rounded to one
// decimal are transmitted.
func Encode(r thermal.Reading) []byte {
	return []byte(Format(r.Label, r.Celsius))
}

// Kind names the reason a line failed to decode.
type Kind int

const (
	// KindSeparator means the line doesn't split into exactly two fields.
	KindSeparator Kind = iota + 1
	// KindEmptyField means the label or the value is empty.
	KindEmptyField
	// KindNumber means the value is not a number.
	KindNumber
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSeparator:
		return "separator"
	case KindEmptyField:
		return "empty"
	case KindNumber:
		return "number"
	}
	return "unknown"
}

// DecodeError is returned for malformed lines.
type DecodeError struct {
	Kind Kind
	Line string
	Err  error
}

// Error implements error.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame %q (%s): %v", e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("malformed frame %q (%s)", e.Line, e.Kind)
}

// Unwrap returns the underlying parse error if any.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a line into a reading with Label and Celsius set.
// Surrounding whitespace including the line break is ignored.
func Decode(line string) (thermal.Reading, error) {
	stripped := strings.TrimSpace(line)
	parts := strings.Split(stripped, Separator)
	if len(parts) != 2 {
		return thermal.Reading{}, &DecodeError{Kind: KindSeparator, Line: stripped}
	}
	if parts[0] == "" || parts[1] == "" {
		return thermal.Reading{}, &DecodeError{Kind: KindEmptyField, Line: stripped}
	}
	val, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return thermal.Reading{}, &DecodeError{Kind: KindNumber, Line: stripped, Err: err}
	}
	return thermal.Reading{Label: parts[0], Celsius: val}, nil
}

// Writer writes encoded frames.
type Writer struct {
	W io.Writer
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

// WriteReading writes one frame in a single Write call.
func (w *Writer) WriteReading(r thermal.Reading) error {
	_, err := w.W.Write(Encode(r))
	return err
}
