package consensus

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// ERR_TRUNCATED_INPUT means a decode requested more bytes than remained.
	ERR_TRUNCATED_INPUT ErrorCode = "ERR_TRUNCATED_INPUT"
	// ERR_STRUCTURAL means a decoded object violates a structural invariant
	// (bad length, count overflow, trailing bytes).
	ERR_STRUCTURAL ErrorCode = "ERR_STRUCTURAL"
)

type CodecError struct {
	Code ErrorCode
	Msg  string
}

func (e *CodecError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func codecErr(code ErrorCode, msg string) error {
	return &CodecError{Code: code, Msg: msg}
}

// IsTruncated reports whether err is a truncated-input decode failure.
func IsTruncated(err error) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code == ERR_TRUNCATED_INPUT
	}
	return false
}
