package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil
	}

	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	return json.Unmarshal(data, s)
}

// Contains reports whether v is one of the elements.
func (s StringSlice) Contains(v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// CoverageJSON stores CoveragePercentages as a JSON text column.
type CoverageJSON CoveragePercentages

func (c CoverageJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(CoveragePercentages(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *CoverageJSON) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*c = CoverageJSON{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported coverage column type %T", value)
	}
	var p CoveragePercentages
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CoverageJSON(p)
	return nil
}
