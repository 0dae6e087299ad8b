package interpreter

import (
	"errors"
	"fmt"
)

type ParseErrorReason string

const (
	// EmptyInput means the date text was absent. Batch callers treat it as "no value".
	EmptyInput ParseErrorReason = "empty"
	// IncompleteMatch means the pattern did not consume the whole text.
	IncompleteMatch ParseErrorReason = "incomplete"
)

type ParseError struct {
	Reason  ParseErrorReason
	Text    string
	Pattern string
	Cause   error
}

func (e *ParseError) Error() string {
	switch e.Reason {
	case EmptyInput:
		return "empty date text"
	case IncompleteMatch:
		if e.Cause != nil {
			return fmt.Sprintf("format [%s] does not match [%s]: %s", e.Pattern, e.Text, e.Cause)
		}
		return fmt.Sprintf("format [%s] does not match the whole of [%s]", e.Pattern, e.Text)
	}
	return fmt.Sprintf("%s: failed to parse [%s] with format [%s]", e.Reason, e.Text, e.Pattern)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func reasonOf(err error) ParseErrorReason {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Reason
	}
	return ""
}

// IsEmpty reports whether err means the input had no value.
func IsEmpty(err error) bool {
	return reasonOf(err) == EmptyInput
}

func IsIncomplete(err error) bool {
	return reasonOf(err) == IncompleteMatch
}
