// Package codec is the value codec for call arguments, results, and errors.
// It serializes arbitrary values to transmissible strings and back. Error
// values survive the round trip as RemoteError; callable values do not.
package codec

import (
	"encoding/json"
	"fmt"
)

// errorKey wraps encoded error values so Decode can tell them apart from
// plain objects.
const errorKey = "$error"

// Coded is implemented by errors that carry a machine-readable code worth
// preserving across the wire.
type Coded interface {
	ErrorCode() string
}

// RemoteError is the decoded form of an error value that crossed the wire.
type RemoteError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ErrorCode returns the preserved error code, if any.
func (e *RemoteError) ErrorCode() string { return e.Code }

// Encode serializes a value to its wire string. Errors are wrapped so they
// decode back into RemoteError.
func Encode(v any) (string, error) {
	if err, ok := v.(error); ok {
		wrapped := map[string]*RemoteError{
			errorKey: {Message: err.Error()},
		}
		if coded, ok := err.(Coded); ok {
			wrapped[errorKey].Code = coded.ErrorCode()
		}
		data, merr := json.Marshal(wrapped)
		if merr != nil {
			return "", fmt.Errorf("codec - failed to encode error value: %w", merr)
		}
		return string(data), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec - failed to encode value of type %T: %w", v, err)
	}
	return string(data), nil
}

// Decode deserializes a wire string produced by Encode. Wrapped errors come
// back as *RemoteError; everything else as the natural JSON mapping.
func Decode(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("codec - failed to decode value: %w", err)
	}

	if obj, ok := v.(map[string]any); ok && len(obj) == 1 {
		if raw, ok := obj[errorKey]; ok {
			data, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("codec - failed to re-encode error payload: %w", err)
			}
			var remote RemoteError
			if err := json.Unmarshal(data, &remote); err != nil {
				return nil, fmt.Errorf("codec - malformed error payload: %w", err)
			}
			return &remote, nil
		}
	}

	return v, nil
}
