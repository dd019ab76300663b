package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize rewrites a nested value so the store never sees a native
// float: fractional numbers become decimal.Decimal built from their
// textual form, integer literals become int64, and strings that pass
// the strict numeric check become decimals too. Everything else passes
// through unchanged, so normalizing twice is a no-op.
func Normalize(v any) any {
	switch t := v.(type) {
	case Document:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[string]any:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case json.Number:
		return restoreNumber(t)
	case float64:
		// Shortest round-trip text keeps 95.0 as "95" rather than a
		// binary approximation.
		if d, err := decimal.NewFromString(strconv.FormatFloat(t, 'f', -1, 64)); err == nil {
			return d
		}
		return t
	case float32:
		if d, err := decimal.NewFromString(strconv.FormatFloat(float64(t), 'f', -1, 32)); err == nil {
			return d
		}
		return t
	case string:
		if isStrictNumeric(t) {
			if d, err := decimal.NewFromString(t); err == nil {
				return d
			}
		}
		return t
	default:
		return v
	}
}

// NormalizeDocument is Normalize specialized to a document root.
func NormalizeDocument(d Document) Document {
	if d == nil {
		return nil
	}
	return Normalize(d).(Document)
}

// restoreNumber maps a JSON numeric literal to the stored numeric
// types: plain integers stay integral, anything fractional or in
// exponent form becomes a decimal built from the literal text.
func restoreNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return s
}

// isStrictNumeric reports whether s is a plain numeric literal: an
// optional single leading '-', at most one '.', at least one digit and
// nothing else. "95", "-2.5" and ".5" qualify; "", "-", "3.5x" and
// "1.2.3" do not.
func isStrictNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i++
	}
	digits, dots := 0, 0
	for ; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}
