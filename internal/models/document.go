package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Stored decimals must render as plain JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Document is a schemaless record as held by the store. Leaves are
// string, bool, nil, int64, decimal.Decimal, []any or nested Document.
// Native floats never reach a store backend; see Normalize.
type Document map[string]any

// GetString returns a string field, or "" when absent or not a string.
func (d Document) GetString(key string) string {
	s, _ := d[key].(string)
	return s
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(d).(Document)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case map[string]any:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// DecodeBody parses a JSON request body into a Document. Numbers are
// kept as json.Number so integer and fractional literals stay apart
// until Normalize runs. An empty body yields an empty document.
func DecodeBody(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	doc := make(Document, len(raw))
	for k, v := range raw {
		doc[k] = v
	}
	return doc, nil
}

// DecodeJSON parses stored JSON back into a Document, restoring integer
// literals to int64 and fractional literals to decimal.Decimal. Strings
// are left alone: normalization happened before the document was stored.
func DecodeJSON(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return restoreValue(raw).(Document), nil
}

func restoreValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = restoreValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = restoreValue(val)
		}
		return out
	case json.Number:
		return restoreNumber(t)
	default:
		return v
	}
}

// Value implements driver.Valuer so a Document can ride a jsonb column.
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *Document) Scan(value any) error {
	var data []byte
	switch t := value.(type) {
	case []byte:
		data = t
	case string:
		data = []byte(t)
	case nil:
		*d = nil
		return nil
	default:
		return errors.New("unsupported document column type")
	}
	doc, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
