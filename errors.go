package haystack_solr

import (
	"errors"
	"fmt"
)

var (
	// ErrDistributionNotFound is returned by a Resolver when a requirement has no
	// installed distribution.
	ErrDistributionNotFound = errors.New("distribution not found")

	// ErrNotWritable indicates the install location can't be written to.
	ErrNotWritable = errors.New("install location is not writable")

	// ErrInsufficientSpace indicates the install location doesn't have enough free
	// space for the tree being copied.
	ErrInsufficientSpace = errors.New("not enough free space")

	// ErrUnknownPart indicates a part name that isn't a section of the build file.
	ErrUnknownPart = errors.New("unknown part")
)

// UserError is a configuration problem the user has to fix in the build file. It is
// always raised before the recipe touches the filesystem.
type UserError struct {
	Part    string
	Message string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	if e.Part == "" {
		return msg
	}
	return fmt.Sprintf("[%s] %s", e.Part, msg)
}

func (e *UserError) Unwrap() error { return e.Err }

func userErrorf(part, format string, args ...any) *UserError {
	return &UserError{Part: part, Message: fmt.Sprintf(format, args...)}
}

// FormatError reports a malformed line in a line-oriented option.
type FormatError struct {
	Option string
	Line   int
	Text   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad format in %q, line %d: %q", e.Option, e.Line, e.Text)
}
