package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// CryptoList is the set of accepted cryptocurrency ticker symbols for a store.
// The vocabulary is free-form and unbounded, so it is persisted as a JSON
// array in a TEXT column rather than a join table.
type CryptoList []string

// Value implements driver.Valuer, serializing the list to JSON.
func (l CryptoList) Value() (driver.Value, error) {
	if l == nil {
		l = CryptoList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, accepting TEXT/BLOB JSON or NULL.
func (l *CryptoList) Scan(src any) error {
	if src == nil {
		*l = CryptoList{}
		return nil
	}
	switch v := src.(type) {
	case string:
		if v == "" {
			*l = CryptoList{}
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	case []byte:
		if len(v) == 0 {
			*l = CryptoList{}
			return nil
		}
		return json.Unmarshal(v, l)
	default:
		return errors.New("unsupported source type for CryptoList")
	}
}
