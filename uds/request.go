package uds

import "github.com/pkg/errors"

// Request is a single UDS request message: a service, an optional
// sub-function byte (with its suppress-positive-response bit), and a
// service-specific payload (spec.md §3 "Request / Response").
type Request struct {
	Service     Service
	SubFunction *byte // nil for services without a sub-function
	Suppress    bool
	Payload     []byte
}

// NewRequest builds a Request, rejecting a sub-function (or suppress flag)
// for a service that doesn't carry one — an Open Question in spec.md §9
// resolved in favour of failing fast rather than silently dropping it.
func NewRequest(service Service, subFunction *byte, suppress bool, payload []byte) (*Request, error) {
	if subFunction == nil && suppress {
		return nil, errors.New("uds: suppress-positive requires a sub-function")
	}
	if subFunction != nil && !HasSubFunction(service) {
		return nil, &ServiceError{Service: service, Msg: "service does not carry a sub-function"}
	}
	return &Request{Service: service, SubFunction: subFunction, Suppress: suppress, Payload: payload}, nil
}

// Encode serialises the request to its wire bytes: service, optional
// sub-function (with suppress bit folded in), then payload.
func (r *Request) Encode() []byte {
	out := make([]byte, 0, 2+len(r.Payload))
	out = append(out, byte(r.Service))
	if r.SubFunction != nil {
		out = append(out, EncodeSubFunction(*r.SubFunction, r.Suppress))
	}
	return append(out, r.Payload...)
}
