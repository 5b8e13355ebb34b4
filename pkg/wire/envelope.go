// Package wire defines the envelope message set exchanged between a proxy-hub
// session and its client, and the encode/decode helpers for the byte stream.
package wire

import (
	"encoding/json"
	"fmt"
)

// EnvelopeType discriminates the envelope union.
type EnvelopeType string

// Client→server envelope types.
const (
	TypePing   EnvelopeType = "ping"
	TypeMethod EnvelopeType = "method"
)

// Server→client envelope types.
const (
	TypePong    EnvelopeType = "pong"
	TypeInit    EnvelopeType = "init"
	TypeSuccess EnvelopeType = "success"
	TypeFail    EnvelopeType = "fail"
	TypeEvent   EnvelopeType = "event"
)

// Envelope is one complete wire-level message. Exactly one variant field is
// set, matching Type; Ping and Pong carry no payload.
type Envelope struct {
	Type    EnvelopeType `json:"type"`
	Method  *MethodCall  `json:"method,omitempty"`
	Init    *Init        `json:"init,omitempty"`
	Success *CallResult  `json:"success,omitempty"`
	Fail    *CallResult  `json:"fail,omitempty"`
	Event   *Event       `json:"event,omitempty"`
}

// MethodCall is a client request to invoke a method on a proxy. Each element
// of Args is one value-codec encoding of a call argument.
type MethodCall struct {
	ID     int64    `json:"id"`
	Target ProxyRef `json:"target"`
	Method string   `json:"method"`
	Args   []string `json:"args,omitempty"`
}

// ProxyRef addresses the target of a call: a built-in proxy by module name,
// or a dynamically vended proxy by the call id it was registered under.
type ProxyRef struct {
	Module  string `json:"module,omitempty"`
	ProxyID *int64 `json:"proxyId,omitempty"`
}

// NamedRef returns a ProxyRef addressing a built-in module.
func NamedRef(module string) ProxyRef {
	return ProxyRef{Module: module}
}

// NumberedRef returns a ProxyRef addressing a vended proxy by id.
func NumberedRef(id int64) ProxyRef {
	return ProxyRef{ProxyID: &id}
}

// Numbered reports whether the ref addresses a vended proxy.
func (r ProxyRef) Numbered() bool {
	return r.ProxyID != nil
}

func (r ProxyRef) String() string {
	if r.ProxyID != nil {
		return fmt.Sprintf("#%d", *r.ProxyID)
	}
	return r.Module
}

// CallResult is the terminal response for a call. For Success, Response is
// the codec-encoded payload; for Fail, the codec-encoded error.
type CallResult struct {
	ID       int64  `json:"id"`
	Response string `json:"response"`
}

// Event is an out-of-band notification from a registered proxy. ProxyID is
// set for vended proxies, Module for built-ins.
type Event struct {
	ProxyID int64    `json:"proxyId,omitempty"`
	Module  string   `json:"module,omitempty"`
	Event   string   `json:"event"`
	Args    []string `json:"args,omitempty"`
}

// Init is the handshake envelope sent once after session construction.
type Init struct {
	DataDirectory              string          `json:"dataDirectory"`
	WorkingDirectory           string          `json:"workingDirectory"`
	BuiltInExtensionsDirectory string          `json:"builtInExtensionsDirectory"`
	HomeDirectory              string          `json:"homeDirectory"`
	TmpDirectory               string          `json:"tmpDirectory"`
	OperatingSystem            OperatingSystem `json:"operatingSystem"`
	Shell                      string          `json:"shell"`
	ServerVersion              string          `json:"serverVersion,omitempty"`
}

// NewPing builds a Ping envelope.
func NewPing() *Envelope { return &Envelope{Type: TypePing} }

// NewPong builds a Pong envelope.
func NewPong() *Envelope { return &Envelope{Type: TypePong} }

// NewMethod builds a Method envelope.
func NewMethod(call *MethodCall) *Envelope {
	return &Envelope{Type: TypeMethod, Method: call}
}

// NewInit builds an Init envelope.
func NewInit(init *Init) *Envelope {
	return &Envelope{Type: TypeInit, Init: init}
}

// NewSuccess builds a Success envelope for the given call id.
func NewSuccess(id int64, response string) *Envelope {
	return &Envelope{Type: TypeSuccess, Success: &CallResult{ID: id, Response: response}}
}

// NewFail builds a Fail envelope for the given call id.
func NewFail(id int64, response string) *Envelope {
	return &Envelope{Type: TypeFail, Fail: &CallResult{ID: id, Response: response}}
}

// NewEvent builds an Event envelope.
func NewEvent(event *Event) *Envelope {
	return &Envelope{Type: TypeEvent, Event: event}
}

// Marshal encodes an envelope for transmission.
func Marshal(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire - failed to marshal %s envelope: %w", env.Type, err)
	}
	return data, nil
}

// Unmarshal decodes an inbound message and validates that the variant payload
// matching its type is present.
func Unmarshal(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire - malformed envelope: %w", err)
	}

	switch env.Type {
	case TypePing, TypePong:
	case TypeMethod:
		if env.Method == nil {
			return nil, fmt.Errorf("wire - method envelope missing method payload")
		}
		if env.Method.Target.Module == "" && env.Method.Target.ProxyID == nil {
			return nil, fmt.Errorf("wire - method envelope missing call target")
		}
	case TypeInit:
		if env.Init == nil {
			return nil, fmt.Errorf("wire - init envelope missing init payload")
		}
	case TypeSuccess:
		if env.Success == nil {
			return nil, fmt.Errorf("wire - success envelope missing result payload")
		}
	case TypeFail:
		if env.Fail == nil {
			return nil, fmt.Errorf("wire - fail envelope missing result payload")
		}
	case TypeEvent:
		if env.Event == nil {
			return nil, fmt.Errorf("wire - event envelope missing event payload")
		}
	case "":
		return nil, fmt.Errorf("wire - envelope missing type")
	default:
		return nil, fmt.Errorf("wire - unknown envelope type %q", env.Type)
	}

	return &env, nil
}
