package dto

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	commitSHARegex = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)
	dateOnlyRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func validateRequired(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	return nil
}

func validateURL(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	u, err := url.ParseRequestURI(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []ValidationError{{Field: field, Message: "invalid URL format"}}
	}
	return nil
}

func validateWallet(field, value string) []ValidationError {
	if !common.IsHexAddress(strings.TrimSpace(value)) {
		return []ValidationError{{Field: field, Message: "must be a 0x-prefixed 20 byte hex address"}}
	}
	return nil
}

func validateCommitSHA(field, value string) []ValidationError {
	if !commitSHARegex.MatchString(value) {
		return []ValidationError{{Field: field, Message: "must be 7 to 40 hex characters"}}
	}
	return nil
}

func validatePercentage(field string, value float64) []ValidationError {
	if value < 0 || value > 100 {
		return []ValidationError{{Field: field, Message: "must be between 0 and 100"}}
	}
	return nil
}

// ParseDateParam accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper bound
// covers the whole day. Empty input yields the zero time.
func ParseDateParam(field, raw string, endOfDay bool) (time.Time, *ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if dateOnlyRegex.MatchString(raw) {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, &ValidationError{Field: field, Message: "invalid date"}
		}
		if endOfDay {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: "invalid date format (expected: RFC3339 or YYYY-MM-DD)"}
	}
	return t.UTC(), nil
}
