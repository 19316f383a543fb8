package uds

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/keestucker-fork/diagkit/canbus"
	"github.com/keestucker-fork/diagkit/internal/registry"
	"github.com/keestucker-fork/diagkit/isotp"
)

// P2Timing is the per-session response-time budget: P2Ms bounds a normal
// response, P2StarMs bounds the wait after a 0x78 response-pending NRC
// (spec.md §4.4/§4.5).
type P2Timing struct {
	P2Ms       uint16
	P2StarMs   uint16
	P2OffsetMs uint16
}

// DefaultP2Timing matches ISO 14229-1's default server timing.
func DefaultP2Timing() P2Timing { return P2Timing{P2Ms: 50, P2StarMs: 5000} }

// Client is the per-channel UDS orchestration layer: it owns one ISO-TP
// Engine, sends a Request, and resolves the matching Response, including
// the response-pending (NRC 0x78) retry loop and automatic TesterPresent
// keep-alive during long-running routines. Generalizes the teacher's
// per-ECU one-off functions (ecus/k01.go, ecus/ktm-16-20.go) into a single
// channel-parametric client driven entirely by Configuration.
type Client struct {
	engine *isotp.Engine
	cfg    *Configuration
	log    *logrus.Entry

	timing      P2Timing
	broadcaster *ResponseBroadcaster

	keepAliveCancel context.CancelFunc
}

// NewClient builds a Client on top of an already-constructed Engine. A nil
// log falls back to whatever is registered under registry.NameLogger, and
// only then to a bare default logger.
func NewClient(engine *isotp.Engine, cfg *Configuration, log *logrus.Entry) *Client {
	if log == nil {
		log, _ = registry.Get(registry.NameLogger).(*logrus.Entry)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{engine: engine, cfg: cfg, log: log, timing: DefaultP2Timing(), broadcaster: NewResponseBroadcaster(log)}
}

// Subscribe returns a channel that receives every response this Client
// parses, positive or negative, for passive observers (logging, a UI).
func (c *Client) Subscribe() chan *Response { return c.broadcaster.Subscribe() }

// Unsubscribe stops and releases a channel returned by Subscribe.
func (c *Client) Unsubscribe(ch chan *Response) { c.broadcaster.Unsubscribe(ch) }

// Close releases the Client's broadcaster subscribers.
func (c *Client) Close() {
	if c.keepAliveCancel != nil {
		c.keepAliveCancel()
	}
	c.broadcaster.Cleanup()
}

// send writes req, then waits for its matching response, transparently
// retrying on NRC 0x78 (request correctly received, response pending)
// until timing.P2StarMs elapses without one. A suppressed request still
// waits up to P2: silence on timeout is the only suppressed outcome that
// is not an error (spec.md §4.5/§8 "suppress_positive + timeout is a
// success ... suppress_positive + NRC is still an error").
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if err := c.engine.Write(ctx, canbus.Physical, req.Encode()); err != nil {
		return nil, errors.Wrap(err, "uds: sending request")
	}

	budget := time.Duration(c.timing.P2Ms+c.timing.P2OffsetMs+c.cfg.P2OffsetMs) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev := <-c.engine.Events():
			switch ev.Kind {
			case isotp.EventDataReceived:
				resp, err := ParseResponse(ev.Data)
				if err != nil {
					return nil, err
				}
				if resp.Negative && resp.NRC.IsResponsePending() {
					tpReq, err := NewRequest(ServiceTesterPresent, subFn(0x00), true, nil)
					if err != nil {
						return nil, err
					}
					if err := c.engine.Write(ctx, canbus.Physical, tpReq.Encode()); err != nil {
						return nil, errors.Wrap(err, "uds: sending keep-alive TesterPresent during response-pending wait")
					}
					budget = time.Duration(c.timing.P2StarMs) * time.Millisecond
					continue
				}
				c.broadcaster.Broadcast(resp)
				if resp.Negative {
					return resp, &NRCError{Service: resp.Service, Code: resp.NRC}
				}
				if err := resp.CheckService(req.Service); err != nil {
					return resp, err
				}
				if req.SubFunction != nil {
					if err := resp.CheckSubFunction(*req.SubFunction); err != nil {
						return resp, err
					}
				}
				return resp, nil
			case isotp.EventErrorOccurred:
				return nil, ev.Err
			default:
				continue
			}
		case <-time.After(budget):
			if req.Suppress {
				return nil, nil
			}
			return nil, errors.Errorf("uds: %s: no response within %s", req.Service, budget)
		}
	}
}

func (c *Client) sendSimple(ctx context.Context, service Service, subFunction *byte, payload []byte) (*Response, error) {
	req, err := NewRequest(service, subFunction, false, payload)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

func subFn(v byte) *byte { return &v }

// SessionCtrl requests a diagnostic session and, on success, updates the
// client's P2/P2* timing from the ECU's reported values (spec.md §4.5
// "session timing update").
func (c *Client) SessionCtrl(ctx context.Context, session SessionType) (*Response, error) {
	resp, err := c.sendSimple(ctx, ServiceDiagnosticSessionControl, subFn(byte(session)), nil)
	if err != nil {
		return resp, err
	}
	if len(resp.Payload) >= 4 {
		c.timing.P2Ms = uint16(resp.Payload[0])<<8 | uint16(resp.Payload[1])
		c.timing.P2StarMs = (uint16(resp.Payload[2])<<8 | uint16(resp.Payload[3])) * 10
	}
	return resp, nil
}

// ECUReset requests an ECU reset.
func (c *Client) ECUReset(ctx context.Context, reset ResetType) (*Response, error) {
	return c.sendSimple(ctx, ServiceECUReset, subFn(byte(reset)), nil)
}

// ClearDiagnosticInformation clears stored DTCs matching groupOfDTC (a
// 3-byte group, 0xFFFFFF for "all groups").
func (c *Client) ClearDiagnosticInformation(ctx context.Context, groupOfDTC uint32) (*Response, error) {
	payload := []byte{byte(groupOfDTC >> 16), byte(groupOfDTC >> 8), byte(groupOfDTC)}
	return c.sendSimple(ctx, ServiceClearDiagnosticInformation, nil, payload)
}

// ReadDTCInformation issues a 0x19 request for reportType with its
// report-specific parameter bytes. The caller decodes resp.Payload with
// the matching Decode* helper in dtc.go for reportType's shape.
func (c *Client) ReadDTCInformation(ctx context.Context, reportType DTCReportType, params ...byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceReadDTCInformation, subFn(byte(reportType)), EncodeReadDTCInformation(reportType, params...))
}

// ReadDataByIdentifier reads one or more DIDs in a single request.
func (c *Client) ReadDataByIdentifier(ctx context.Context, dids ...uint16) ([]DataRecord, error) {
	resp, err := c.sendSimple(ctx, ServiceReadDataByIdentifier, nil, EncodeReadDataByIdentifier(dids...))
	if err != nil {
		return nil, err
	}
	return DecodeReadDataByIdentifier(c.cfg, resp.Payload)
}

// ReadMemoryByAddress reads size bytes starting at address.
func (c *Client) ReadMemoryByAddress(ctx context.Context, m MemoryAddressAndLength) (*Response, error) {
	payload, err := m.Encode(c.cfg)
	if err != nil {
		return nil, err
	}
	return c.sendSimple(ctx, ServiceReadMemoryByAddress, nil, payload)
}

// ReadScalingDataByIdentifier reads a single DID's scaling metadata.
func (c *Client) ReadScalingDataByIdentifier(ctx context.Context, did uint16) (*Response, error) {
	return c.sendSimple(ctx, ServiceReadScalingDataByIdentifier, nil, []byte{byte(did >> 8), byte(did)})
}

// ReadDataByPeriodicIdentifier requests that the ECU start (or stop, via
// StopSending) periodic transmission of one or more single-byte periodic
// DIDs.
func (c *Client) ReadDataByPeriodicIdentifier(ctx context.Context, mode PeriodicTransmissionMode, periodicDIDs ...byte) (*Response, error) {
	payload := append([]byte{byte(mode)}, periodicDIDs...)
	return c.sendSimple(ctx, ServiceReadDataByPeriodicID, nil, payload)
}

// SecuredDataTransmission carries an opaque, already-secured payload
// (signed/encrypted by the caller) to the ECU unmodified.
func (c *Client) SecuredDataTransmission(ctx context.Context, securedPayload []byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceSecuredDataTransmission, nil, securedPayload)
}

// LinkControl negotiates the physical-link baud rate used after the
// diagnostic session (verify/transition sub-functions).
func (c *Client) LinkControl(ctx context.Context, ctrl LinkControlType, params []byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceLinkControl, subFn(byte(ctrl)), params)
}

// UnlockSecurityAccess runs the seed/key exchange for level: request a
// seed, compute the key via cfg.SecurityAlgorithm, and submit it.
func (c *Client) UnlockSecurityAccess(ctx context.Context, level SecurityAccessType, salt []byte) (*Response, error) {
	if !level.IsSeedRequest() {
		return nil, &SubFunctionError{Service: ServiceSecurityAccess, Msg: "level must be an odd (seed-request) value"}
	}
	seedResp, err := c.sendSimple(ctx, ServiceSecurityAccess, subFn(byte(level)), nil)
	if err != nil {
		return seedResp, err
	}
	if c.cfg.SecurityAlgorithm == nil {
		return seedResp, errors.New("uds: security access requires a seed but no SecurityAlgorithm is configured")
	}
	key, err := c.cfg.SecurityAlgorithm(byte(level), seedResp.Payload, salt)
	if err != nil {
		return seedResp, errors.Wrap(err, "uds: computing security key")
	}
	if key == nil {
		// cfg.SecurityAlgorithm returning nil means the exchange needs no
		// key (spec.md §4.5, uds/config.go's SecurityAlgorithm contract):
		// the seed alone satisfied the ECU, so no key-level request follows.
		return seedResp, nil
	}
	return c.sendSimple(ctx, ServiceSecurityAccess, subFn(byte(level.KeyLevel())), key)
}

// CommunicationControl enables/disables Rx/Tx per ctrl.
func (c *Client) CommunicationControl(ctx context.Context, ctrl CommunicationControlType, communicationType byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceCommunicationControl, subFn(byte(ctrl)), []byte{communicationType})
}

// WriteDataByIdentifier writes value to did, validating value's length
// against the same did_cfg map DecodeReadDataByIdentifier uses (spec.md
// §4.3: "WriteDataByIdentifier (0x2E) validates the request body against
// the same map").
func (c *Client) WriteDataByIdentifier(ctx context.Context, did uint16, value []byte) (*Response, error) {
	length, ok := c.cfg.DataIdentifierLength(did)
	if !ok {
		return nil, &DidNotSupportedError{DID: did}
	}
	if len(value) != length {
		return nil, &InvalidParamError{Msg: fmt.Sprintf("data identifier 0x%04X expects %d bytes, got %d", did, length, len(value))}
	}
	return c.sendSimple(ctx, ServiceWriteDataByIdentifier, nil, EncodeWriteDataByIdentifier(did, value))
}

// InputOutputControlByIdentifier issues 0x2F for did.
func (c *Client) InputOutputControlByIdentifier(ctx context.Context, did uint16, controlOption []byte) (*Response, error) {
	payload := append([]byte{byte(did >> 8), byte(did)}, controlOption...)
	return c.sendSimple(ctx, ServiceInputOutputControlByID, nil, payload)
}

// RoutineControl starts/stops/polls routineID.
func (c *Client) RoutineControl(ctx context.Context, ctrl RoutineControlType, routineID uint16, params []byte) (*Response, error) {
	payload := append([]byte{byte(routineID >> 8), byte(routineID)}, params...)
	return c.sendSimple(ctx, ServiceRoutineControl, subFn(byte(ctrl)), payload)
}

// RequestDownload starts a tester-to-ECU transfer.
func (c *Client) RequestDownload(ctx context.Context, dataFormatIdentifier byte, m MemoryAddressAndLength) (*Response, error) {
	return c.requestTransfer(ctx, ServiceRequestDownload, dataFormatIdentifier, m)
}

// RequestUpload starts an ECU-to-tester transfer. The teacher's ecus
// package never wired this service at all; it is implemented fresh here
// as service 0x35, not 0x34 — RequestDownload and RequestUpload are
// distinct services and must not be conflated.
func (c *Client) RequestUpload(ctx context.Context, dataFormatIdentifier byte, m MemoryAddressAndLength) (*Response, error) {
	return c.requestTransfer(ctx, ServiceRequestUpload, dataFormatIdentifier, m)
}

func (c *Client) requestTransfer(ctx context.Context, service Service, dataFormatIdentifier byte, m MemoryAddressAndLength) (*Response, error) {
	addrPayload, err := m.Encode(c.cfg)
	if err != nil {
		return nil, err
	}
	payload := append([]byte{dataFormatIdentifier}, addrPayload...)
	return c.sendSimple(ctx, service, nil, payload)
}

// DefineDataIdentifierByIdentifier defines newDID as the concatenation of
// the byte ranges named by sources, via DynamicallyDefineDataIdentifier
// (0x2C) sub-function 0x01.
func (c *Client) DefineDataIdentifierByIdentifier(ctx context.Context, newDID uint16, sources []DynamicDIDSource) (*Response, error) {
	payload := []byte{byte(newDID >> 8), byte(newDID)}
	for _, s := range sources {
		payload = append(payload, byte(s.SourceDID>>8), byte(s.SourceDID), s.Position, s.Size)
	}
	return c.sendSimple(ctx, ServiceDynamicallyDefineDID, subFn(byte(DefineByIdentifier)), payload)
}

// DefineDataIdentifierByMemoryAddress defines newDID as the concatenation
// of the given memory ranges, via DynamicallyDefineDataIdentifier (0x2C)
// sub-function 0x02 — the "memory variant" spec.md §4.3 calls out as
// needing the same variable-width ALFI encoding as 0x23/0x34/0x35/0x3D.
func (c *Client) DefineDataIdentifierByMemoryAddress(ctx context.Context, newDID uint16, ranges []MemoryAddressAndLength) (*Response, error) {
	payload := []byte{byte(newDID >> 8), byte(newDID)}
	for _, m := range ranges {
		encoded, err := m.Encode(c.cfg)
		if err != nil {
			return nil, err
		}
		payload = append(payload, encoded...)
	}
	return c.sendSimple(ctx, ServiceDynamicallyDefineDID, subFn(byte(DefineByMemoryAddress)), payload)
}

// ClearDynamicallyDefinedDataIdentifier clears a single dynamic DID, or
// every dynamic DID on the ECU when did is nil.
func (c *Client) ClearDynamicallyDefinedDataIdentifier(ctx context.Context, did *uint16) (*Response, error) {
	var payload []byte
	if did != nil {
		payload = []byte{byte(*did >> 8), byte(*did)}
	}
	return c.sendSimple(ctx, ServiceDynamicallyDefineDID, subFn(byte(ClearDynamicDID)), payload)
}

// TransferData sends one block of transfer data and verifies the ECU
// echoed the same block sequence counter.
func (c *Client) TransferData(ctx context.Context, blockSequenceCounter byte, data []byte) (*Response, error) {
	payload := append([]byte{blockSequenceCounter}, data...)
	resp, err := c.sendSimple(ctx, ServiceTransferData, nil, payload)
	if err != nil {
		return resp, err
	}
	if len(resp.Payload) == 0 || resp.Payload[0] != blockSequenceCounter {
		got := byte(0)
		if len(resp.Payload) > 0 {
			got = resp.Payload[0]
		}
		return resp, &UnexpectedTransferSequenceError{Want: blockSequenceCounter, Got: got}
	}
	return resp, nil
}

// RequestTransferExit ends an upload/download sequence.
func (c *Client) RequestTransferExit(ctx context.Context, transferRequestParams []byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceRequestTransferExit, nil, transferRequestParams)
}

// FileTransferOperation is the sub-function of RequestFileTransfer (0x38),
// pulled from original_source/crates/protocols/iso14229-1/src/response/request_file_transfer.rs
// (spec.md §1/§4.3 name 0x38 as in-scope without enumerating its modes).
type FileTransferOperation byte

const (
	FileTransferAddFile     FileTransferOperation = 0x01
	FileTransferDeleteFile  FileTransferOperation = 0x02
	FileTransferReplaceFile FileTransferOperation = 0x03
	FileTransferReadFile    FileTransferOperation = 0x04
	FileTransferReadDir     FileTransferOperation = 0x05
	FileTransferResumeFile  FileTransferOperation = 0x06

	// RequestFileTransfer itself is refused with NotImplementedError
	// outside Edition2020.
)

// RequestFileTransfer issues 0x38, gated to Edition2020 (spec.md §9
// "Feature gating").
func (c *Client) RequestFileTransfer(ctx context.Context, op FileTransferOperation, filePathAndName []byte, params []byte) (*Response, error) {
	if !c.cfg.Edition.supports(ServiceRequestFileTransfer) {
		return nil, &NotImplementedError{Service: ServiceRequestFileTransfer}
	}
	payload := append([]byte{byte(op), byte(len(filePathAndName) >> 8), byte(len(filePathAndName))}, filePathAndName...)
	payload = append(payload, params...)
	return c.sendSimple(ctx, ServiceRequestFileTransfer, nil, payload)
}

// WriteMemoryByAddress writes data at the address/size described by m.
func (c *Client) WriteMemoryByAddress(ctx context.Context, m MemoryAddressAndLength, data []byte) (*Response, error) {
	addrPayload, err := m.Encode(c.cfg)
	if err != nil {
		return nil, err
	}
	return c.sendSimple(ctx, ServiceWriteMemoryByAddress, nil, append(addrPayload, data...))
}

// TesterPresent sends a keep-alive. suppress=true requests no response,
// the usual mode for a periodic keep-alive timer.
func (c *Client) TesterPresent(ctx context.Context, suppress bool) (*Response, error) {
	req, err := NewRequest(ServiceTesterPresent, subFn(0x00), suppress, nil)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

// StartKeepAlive sends a suppressed TesterPresent every interval until the
// returned stop function is called, keeping a diagnostic session alive
// across long-running routines.
func (c *Client) StartKeepAlive(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	c.keepAliveCancel = cancel
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := c.TesterPresent(ctx, true); err != nil {
					c.log.WithError(err).Debug("uds: keep-alive TesterPresent failed")
				}
			}
		}
	}()
	return cancel
}

// ControlDTCSetting enables/disables DTC recording.
func (c *Client) ControlDTCSetting(ctx context.Context, setting DTCSettingType, params []byte) (*Response, error) {
	return c.sendSimple(ctx, ServiceControlDTCSetting, subFn(byte(setting)), params)
}

// AccessTimingParameter reads/writes P2/P2* timing parameters directly.
// Gated to Edition2006/Edition2013 (spec.md §9 "Feature gating"): ISO
// 14229-1:2020 deprecated this service.
func (c *Client) AccessTimingParameter(ctx context.Context, subFunction byte, params []byte) (*Response, error) {
	if !c.cfg.Edition.supports(ServiceAccessTimingParameter) {
		return nil, &NotImplementedError{Service: ServiceAccessTimingParameter}
	}
	return c.sendSimple(ctx, ServiceAccessTimingParameter, subFn(subFunction), params)
}

// Authentication issues 0x29, gated to Edition2020.
func (c *Client) Authentication(ctx context.Context, subFunction byte, params []byte) (*Response, error) {
	if !c.cfg.Edition.supports(ServiceAuthentication) {
		return nil, &NotImplementedError{Service: ServiceAuthentication}
	}
	return c.sendSimple(ctx, ServiceAuthentication, subFn(subFunction), params)
}

// ResponseOnEvent is explicitly out of scope (spec.md Non-goals).
func (c *Client) ResponseOnEvent(ctx context.Context, subFunction byte, params []byte) (*Response, error) {
	return nil, &NotImplementedError{Service: ServiceResponseOnEvent}
}
