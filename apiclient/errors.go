package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindTransport      Kind = iota + 1 // no response received
	KindAuthentication                 // 401 or no stored credential
	KindValidation                     // 400/422 with field errors
	KindRateLimited                    // 429
	KindAuthorization                  // 403 or refused locally by capability check
	KindNotFound                       // 404
	KindServer                         // 5xx
	KindDecode                         // response body could not be decoded
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned for every failed API call.
type Error struct {
	Kind         Kind
	StatusCode   int
	Message      string
	Fields       map[string][]string
	RetryAfter   time.Duration
	RetryMessage string
	Err          error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FieldError returns the first message reported for field.
func (e *Error) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// Message returns the user-visible message for err, using fallback when the
// server gave nothing better.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// preferredFields are consulted, in order, before the remaining field errors.
var preferredFields = []string{"non_field_errors", "username", "email", "new_password", "password"}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// newResponseError builds an Error from a non-2xx response body.
func newResponseError(resp *http.Response, body []byte) *Error {
	apiErr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Fields:     map[string][]string{},
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err == nil {
		var messages = map[string]string{}
		for key, value := range raw {
			var s string
			if json.Unmarshal(value, &s) == nil {
				messages[key] = s
				continue
			}
			var list []string
			if json.Unmarshal(value, &list) == nil && len(list) > 0 {
				apiErr.Fields[key] = list
				continue
			}
			if key == "seconds_remaining" {
				var seconds float64
				if json.Unmarshal(value, &seconds) == nil {
					apiErr.RetryAfter = time.Duration(seconds) * time.Second
				}
			}
		}
		apiErr.RetryMessage = messages["retry_message"]
		apiErr.Message = firstMessage(messages, apiErr.Fields)
	}

	if apiErr.Kind == KindRateLimited && apiErr.RetryAfter == 0 {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	return apiErr
}

func firstMessage(messages map[string]string, fields map[string][]string) string {
	for _, key := range []string{"error", "detail", "message"} {
		if m := messages[key]; m != "" {
			return m
		}
	}
	for _, key := range preferredFields {
		if msgs := fields[key]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return keys[0] + ": " + fields[keys[0]][0]
	}
	return ""
}
