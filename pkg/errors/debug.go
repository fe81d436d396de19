package errors

import "errors"

// Dump captures the typed code and the unwrapped message chain for logging.
type Dump struct {
	Code       Code
	TopMessage string
	Chain      []string
}

// DumpChain walks the error chain and collects the messages for structured logs.
func DumpChain(err error) Dump {
	dump := Dump{Code: CodeInternal}
	if err == nil {
		return dump
	}

	dump.TopMessage = err.Error()
	if typed := As(err); typed != nil {
		dump.Code = typed.Code()
	}

	for cursor := err; cursor != nil; cursor = errors.Unwrap(cursor) {
		dump.Chain = append(dump.Chain, cursor.Error())
	}
	return dump
}
