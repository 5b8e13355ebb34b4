package codec

import (
	"errors"
	"reflect"
	"testing"
)

func TestRoundTrip_Values(t *testing.T) {
	cases := map[string]any{
		"nil":    nil,
		"string": "/tmp/a",
		"number": float64(42),
		"bool":   true,
		"object": map[string]any{"path": "/tmp/a", "size": float64(12)},
		"array":  []any{"a", float64(1), nil},
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Encode(v)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(s)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, v) {
				t.Errorf("round trip = %#v, want %#v", got, v)
			}
		})
	}
}

func TestRoundTrip_Error(t *testing.T) {
	s, err := Encode(errors.New("disk on fire"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	remote, ok := got.(*RemoteError)
	if !ok {
		t.Fatalf("decoded type = %T, want *RemoteError", got)
	}
	if remote.Message != "disk on fire" {
		t.Errorf("message = %q, want %q", remote.Message, "disk on fire")
	}
	if remote.Code != "" {
		t.Errorf("code = %q, want empty", remote.Code)
	}
}

type codedErr struct{ code, msg string }

func (e *codedErr) Error() string     { return e.msg }
func (e *codedErr) ErrorCode() string { return e.code }

func TestRoundTrip_CodedError(t *testing.T) {
	s, err := Encode(&codedErr{code: "TARGET_NOT_FOUND", msg: "no proxy registered under #7"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	remote, ok := got.(*RemoteError)
	if !ok {
		t.Fatalf("decoded type = %T, want *RemoteError", got)
	}
	if remote.Code != "TARGET_NOT_FOUND" {
		t.Errorf("code = %q, want TARGET_NOT_FOUND", remote.Code)
	}
	if remote.Error() != "TARGET_NOT_FOUND: no proxy registered under #7" {
		t.Errorf("Error() = %q", remote.Error())
	}
}

func TestDecode_PlainObjectNotError(t *testing.T) {
	// A two-key object containing $error is NOT the error wrapper.
	got, err := Decode(`{"$error": "x", "other": 1}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(*RemoteError); ok {
		t.Error("two-key object should not decode as RemoteError")
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode(`{not json`); err == nil {
		t.Error("expected error for malformed payload")
	}
}
