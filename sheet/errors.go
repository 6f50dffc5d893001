package sheet

import "fmt"

// ParseError reports input that is not well-formed structured text.
type ParseError struct {
	Line int // 0 when unknown
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports well-formed input with a missing or mistyped field.
type SchemaError struct {
	Field  string // e.g. sections[1].commands[0].command
	Line   int
	Reason string
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg + ": " + e.Reason
}

func commandField(section, command int, field string) string {
	return fmt.Sprintf("sections[%d].commands[%d].%s", section, command, field)
}
