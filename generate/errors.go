package generate

import (
	"errors"
	"fmt"

	"github.com/ByLCY/termsheet/layout"
	"github.com/ByLCY/termsheet/sheet"
)

// WriteError reports an artifact that could not be written to the output directory.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// Error kinds reported in results and logs.
const (
	KindParse   = "ParseError"
	KindSchema  = "SchemaError"
	KindLayout  = "LayoutError"
	KindWrite   = "WriteError"
	KindOther   = "Error"
	KindNoError = ""
)

// Kind classifies an error from the pipeline.
func Kind(err error) string {
	if err == nil {
		return KindNoError
	}
	var (
		pe *sheet.ParseError
		se *sheet.SchemaError
		le *layout.Error
		we *WriteError
	)
	switch {
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &se):
		return KindSchema
	case errors.As(err, &le):
		return KindLayout
	case errors.As(err, &we):
		return KindWrite
	default:
		return KindOther
	}
}
