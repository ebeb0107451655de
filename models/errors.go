// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

// Client-facing errors. All of them are reported as 400 with a short message;
// the annotator's browser retries or the UI routes around them.
var (
	ErrUnknownCampaign       = errors.New("unknown campaign ID")
	ErrUnknownUser           = errors.New("unknown user ID")
	ErrItemIndexOutOfRange   = errors.New("item index out of range")
	ErrInvalidToken          = errors.New("invalid token")
	ErrUnsupportedAssignment = errors.New("unsupported campaign assignment type")
	ErrDynamicNotYetEligible = errors.New("all documents must contain the same model outputs")
	ErrInvalidRequest        = errors.New("invalid request")
)

// ErrMissingActionTime is returned when an action event carries no time field
var ErrMissingActionTime = fmt.Errorf("%w: action without time", ErrInvalidRequest)

// IsClientError reports whether err belongs to the client-facing taxonomy
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrUnknownCampaign,
		ErrUnknownUser,
		ErrItemIndexOutOfRange,
		ErrInvalidToken,
		ErrUnsupportedAssignment,
		ErrDynamicNotYetEligible,
		ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
