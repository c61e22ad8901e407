package protocol

import "errors"

var (
	ErrBusy           = errors.New("radio link busy")
	ErrLinkDown       = errors.New("radio link partner unreachable")
	ErrInvalidChannel = errors.New("invalid carrier frequency")
)
