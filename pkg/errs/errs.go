// Package errs defines the error kinds surfaced by the seeding engine.
//
// Every kind wraps an optional cause so callers can match with errors.As and still
// reach the driver error underneath with errors.Is.
package errs

import "fmt"

type ConfigurationError struct {
	Msg   string
	Cause error
}

func (e *ConfigurationError) Error() string { return render("configuration error", e.Msg, e.Cause) }
func (e *ConfigurationError) Unwrap() error { return e.Cause }

type IntrospectionError struct {
	Msg   string
	Cause error
}

func (e *IntrospectionError) Error() string { return render("introspection failed", e.Msg, e.Cause) }
func (e *IntrospectionError) Unwrap() error { return e.Cause }

type RulesetError struct {
	Path  string
	Msg   string
	Cause error
}

func (e *RulesetError) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s (file: %s)", msg, e.Path)
	}
	return render("invalid ruleset", msg, e.Cause)
}
func (e *RulesetError) Unwrap() error { return e.Cause }

type GenerationError struct {
	Table  string
	Column string
	Msg    string
	Cause  error
}

func (e *GenerationError) Error() string {
	target := e.Table
	if e.Column != "" {
		target += "." + e.Column
	}
	return render("generation failed for "+target, e.Msg, e.Cause)
}
func (e *GenerationError) Unwrap() error { return e.Cause }

type WriteError struct {
	Table string
	Op    string
	Cause error
}

func (e *WriteError) Error() string {
	op := e.Op
	if e.Table != "" {
		op += " " + e.Table
	}
	return render(op+" failed", "", e.Cause)
}
func (e *WriteError) Unwrap() error { return e.Cause }

func Configuration(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func Introspection(cause error, format string, args ...interface{}) error {
	return &IntrospectionError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func Ruleset(path string, cause error, format string, args ...interface{}) error {
	return &RulesetError{Path: path, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func Generation(table, column string, cause error, format string, args ...interface{}) error {
	return &GenerationError{Table: table, Column: column, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func Write(op, table string, cause error) error {
	return &WriteError{Op: op, Table: table, Cause: cause}
}

func render(prefix, msg string, cause error) string {
	switch {
	case msg != "" && cause != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, msg, cause)
	case msg != "":
		return fmt.Sprintf("%s: %s", prefix, msg)
	case cause != nil:
		return fmt.Sprintf("%s: %v", prefix, cause)
	default:
		return prefix
	}
}
