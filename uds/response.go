package uds

// Response is a parsed UDS response: positive (service echoed with the
// 0x40 offset, optional echoed sub-function, then payload) or negative
// (0x7F, the service that was targeted, and an NRC), per spec.md §3.
type Response struct {
	Service     Service
	SubFunction *byte
	Negative    bool
	NRC         NRC
	Payload     []byte
}

// ParseResponse decodes raw response bytes. It does not validate that the
// response matches any particular outstanding request; callers compare
// Service/SubFunction against what they sent.
func ParseResponse(raw []byte) (*Response, error) {
	if len(raw) == 0 {
		return nil, &InvalidDataError{Msg: "empty response"}
	}
	if Service(raw[0]) == NegativeResponseServiceID {
		if len(raw) < 3 {
			return nil, &InvalidDataError{Msg: "negative response shorter than 3 bytes"}
		}
		return &Response{
			Service:  Service(raw[1]),
			Negative: true,
			NRC:      NRC(raw[2]),
			Payload:  raw[3:],
		}, nil
	}
	svc := RequestIDFromPositive(Service(raw[0]))
	r := &Response{Service: svc}
	rest := raw[1:]
	if HasSubFunction(svc) {
		if len(rest) == 0 {
			return nil, &InvalidDataError{Msg: "positive response missing echoed sub-function"}
		}
		sf := SubFunctionValue(rest[0])
		r.SubFunction = &sf
		rest = rest[1:]
	}
	r.Payload = rest
	return r, nil
}

// IsNegative reports whether this is a 0x7F response.
func (r *Response) IsNegative() bool { return r.Negative }

// CheckService returns an UnexpectedResponseError if the response was not
// for want. Negative responses are compared the same way: their Service is
// the originally targeted one by construction.
func (r *Response) CheckService(want Service) error {
	if r.Service != want {
		return &UnexpectedResponseError{Want: want, Got: r.Service}
	}
	return nil
}

// CheckSubFunction returns an UnexpectedSubFunctionError if the response
// echoed a different sub-function than want.
func (r *Response) CheckSubFunction(want byte) error {
	if r.SubFunction == nil || *r.SubFunction != want {
		got := byte(0)
		if r.SubFunction != nil {
			got = *r.SubFunction
		}
		return &UnexpectedSubFunctionError{Service: r.Service, Want: want, Got: got}
	}
	return nil
}
