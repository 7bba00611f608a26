// Package clove implements the lexer, parser, and evaluator for the clove
// pipeline query language: a small language that threads a JSON value
// through filter, transform, delete, bind, and output stages.
package clove

import (
	"github.com/samber/oops"
)

// Error codes for the error kinds named in the language spec. Callers that
// need to distinguish error kinds programmatically should use errors.As
// with *oops.OopsError (via oops.AsOops) and compare against these codes
// rather than matching on message text.
const (
	CodeLexError      = "CLOVE_LEX_ERROR"
	CodeParseError    = "CLOVE_PARSE_ERROR"
	CodeArityError    = "CLOVE_ARITY_ERROR"
	CodeUnboundScope  = "CLOVE_UNBOUND_SCOPE"
	CodeUnboundArg    = "CLOVE_UNBOUND_ARG"
	CodeUnknownUdf    = "CLOVE_UNKNOWN_UDF"
	CodeArityMismatch = "CLOVE_ARITY_MISMATCH"
	CodePathError     = "CLOVE_PATH_ERROR"
	CodeTypeError     = "CLOVE_TYPE_ERROR"
	CodeRegexError    = "CLOVE_REGEX_ERROR"
	CodeStackOverflow = "CLOVE_STACK_OVERFLOW"
	CodeRebind        = "CLOVE_REBIND_ERROR"
)

// lexErrorf builds a LexError carrying the offending source position.
func lexErrorf(pos Position, format string, args ...any) error {
	return oops.Code(CodeLexError).With("pos", pos).Errorf(format, args...)
}

// parseErrorf builds a ParseError carrying the offending source position.
func parseErrorf(pos Position, format string, args ...any) error {
	return oops.Code(CodeParseError).With("pos", pos).Errorf(format, args...)
}

// arityErrorf builds an ArityError for a UDF definition with an out-of-range arity.
func arityErrorf(pos Position, format string, args ...any) error {
	return oops.Code(CodeArityError).With("pos", pos).Errorf(format, args...)
}

func unboundScopeErrorf(name string) error {
	return oops.Code(CodeUnboundScope).With("scope", name).Errorf("unbound scope reference: @%s", name)
}

// unboundCtxErrorf builds an UnboundScope error for a bare "@" used where
// no lambda frame is active, as opposed to an unresolved named scope ref.
func unboundCtxErrorf(format string, args ...any) error {
	return oops.Code(CodeUnboundScope).Errorf(format, args...)
}

func unboundArgErrorf(format string, args ...any) error {
	return oops.Code(CodeUnboundArg).Errorf(format, args...)
}

func rebindErrorf(name string) error {
	return oops.Code(CodeRebind).With("scope", name).Errorf("scope @%s is already bound; rebinding is not permitted", name)
}

func unknownUdfErrorf(name string) error {
	return oops.Code(CodeUnknownUdf).With("udf", name).Errorf("unknown UDF: &%s", name)
}

func arityMismatchErrorf(name string, want, got int) error {
	return oops.Code(CodeArityMismatch).With("udf", name).With("want", want).With("got", got).
		Errorf("UDF &%s expects %d argument(s), got %d", name, want, got)
}

func pathErrorf(format string, args ...any) error {
	return oops.Code(CodePathError).Errorf(format, args...)
}

func typeErrorf(format string, args ...any) error {
	return oops.Code(CodeTypeError).Errorf(format, args...)
}

func regexErrorf(pattern string, err error) error {
	return oops.Code(CodeRegexError).With("pattern", pattern).Wrap(err)
}

func stackOverflowErrorf(depth int) error {
	return oops.Code(CodeStackOverflow).With("depth", depth).Errorf("UDF recursion exceeded max depth %d", depth)
}

// IsCode reports whether err carries the given oops code, walking the error
// chain the way errors.Is does.
func IsCode(err error, code string) bool {
	oerr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oerr.Code() == code
}
