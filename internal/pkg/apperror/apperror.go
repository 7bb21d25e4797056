package apperror

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Kind classifies an error so callers can decide whether to retry, ignore or escalate.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindAnomaly    Kind = "anomaly"
	KindFatal      Kind = "fatal"
	KindInternal   Kind = "internal"
)

// Error is a domain error carrying a stable code and the identifiers needed to locate the offending record.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Fields[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so that copies produced by WithFields still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New creates a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(err error, kind Kind, code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithFields returns a copy of the first *Error in err's chain with the key/value pairs attached.
// Errors that are not *Error are returned unchanged.
func WithFields(err error, kv ...string) error {
	var ae *Error
	if !errors.As(err, &ae) {
		return err
	}
	clone := *ae
	clone.Fields = make(map[string]string, len(ae.Fields)+len(kv)/2)
	maps.Copy(clone.Fields, ae.Fields)
	for i := 0; i+1 < len(kv); i += 2 {
		clone.Fields[kv[i]] = kv[i+1]
	}
	return &clone
}

// KindOf reports the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err, or an empty string.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// FieldsOf returns the identifiers attached to err.
func FieldsOf(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}
