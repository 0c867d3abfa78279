package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fundconnector/internal/common"
)

// OptionalNumber is a numeric patch field. Clients send numbers either as
// JSON numbers or as the text of a form input, so both are accepted.
//
//	absent        -> Set=false            (field untouched)
//	null, ""      -> Set=true, Value=nil  (field cleared)
//	12.5, "12.5"  -> Set=true, Value=12.5
type OptionalNumber struct {
	Set   bool
	Value *float64
}

// Num is shorthand for a set OptionalNumber.
func Num(v float64) OptionalNumber {
	return OptionalNumber{Set: true, Value: &v}
}

func (n *OptionalNumber) UnmarshalJSON(b []byte) error {
	n.Set = true
	n.Value = nil

	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseOptionalNumber(s)
		if err != nil {
			return err
		}
		n.Value = v
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: expected a number", common.ErrorValidation)
	}
	n.Value = &f
	return nil
}

func (n OptionalNumber) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// ParseOptionalNumber converts form text into a number; blank text is "unset".
func ParseOptionalNumber(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q is not a number", common.ErrorValidation, s)
	}
	return &f, nil
}
