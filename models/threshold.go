// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Threshold is a campaign's validation_threshold. The JSON number's written
// form decides the semantics: "2" is an absolute count of allowed failures,
// "0.5" (or "0.0", "1.0") is a proportion.
type Threshold struct {
	Value   float64
	IsFloat bool
}

// IntThreshold returns an absolute-count threshold
func IntThreshold(n int) Threshold {
	return Threshold{Value: float64(n)}
}

// FloatThreshold returns a proportion threshold
func FloatThreshold(f float64) Threshold {
	return Threshold{Value: f, IsFloat: true}
}

func (t *Threshold) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Threshold{}
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("validation_threshold must be a number: %w", err)
	}

	s := num.String()
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = Threshold{Value: float64(n)}
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("validation_threshold %q: %w", s, err)
	}
	*t = Threshold{Value: f, IsFloat: true}
	return nil
}

func (t Threshold) MarshalJSON() ([]byte, error) {
	if !t.IsFloat {
		return []byte(strconv.FormatInt(int64(t.Value), 10)), nil
	}
	s := strconv.FormatFloat(t.Value, 'f', -1, 64)
	if !bytes.ContainsAny([]byte(s), ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func (t Threshold) String() string {
	b, _ := t.MarshalJSON()
	return string(b)
}
