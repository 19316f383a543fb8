package doip

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/keestucker-fork/diagkit/internal/registry"
)

// Client is a DoIP client bound to one TCP connection to an entity. UDP
// vehicle-identification discovery is not done through a Client; it is the
// free function VehicleIdentification, which opens its own socket. Its read
// loop follows the teacher's ArduinoDriver.readLoop shape (a single
// context-cancelable goroutine feeding a buffered channel, errors on a
// separate channel) adapted from a serial port to a net.Conn.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	version Version
	log     *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	messages chan Message
	errs     chan error
	readDone sync.WaitGroup

	SourceAddress LogicalAddress
	EntityAddress LogicalAddress
}

// Dial opens a TCP connection to addr (host:port) and starts the read
// loop. version is sent in every request header.
func Dial(ctx context.Context, addr string, source LogicalAddress, version Version, log *logrus.Entry) (*Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "doip: dialing entity")
	}
	return NewClient(conn, source, version, log), nil
}

// NewClient wraps an already-established connection (typically from Dial,
// but any net.Conn works — tests use net.Pipe) and starts its read loop. A
// nil log falls back to registry.NameLogger, then to a bare default.
func NewClient(conn net.Conn, source LogicalAddress, version Version, log *logrus.Entry) *Client {
	if log == nil {
		log, _ = registry.Get(registry.NameLogger).(*logrus.Entry)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:          conn,
		reader:        bufio.NewReader(conn),
		version:       version,
		log:           log,
		ctx:           cctx,
		cancel:        cancel,
		messages:      make(chan Message, 32),
		errs:          make(chan error, 1),
		SourceAddress: source,
	}
	c.readDone.Add(1)
	go c.readLoop()
	return c
}

// Close stops the read loop and closes the TCP connection. The connection
// is closed before the read loop is awaited: readOne blocks in conn.Read,
// which only ctx cancellation cannot unblock, so closing first is what
// actually wakes it.
func (c *Client) Close() error {
	c.cancel()
	err := c.conn.Close()
	c.readDone.Wait()
	return err
}

func (c *Client) readLoop() {
	defer c.readDone.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}
		msg, err := c.readOne()
		if err != nil {
			select {
			case c.errs <- err:
			default:
			}
			return
		}
		select {
		case c.messages <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) readOne() (Message, error) {
	header := make([]byte, headerSize)
	if _, err := readFull(c.reader, header); err != nil {
		return Message{}, errors.Wrap(err, "doip: reading header")
	}
	h, err := DecodeHeader(header)
	if err != nil {
		return Message{}, err
	}
	body := make([]byte, h.PayloadSize)
	if _, err := readFull(c.reader, body); err != nil {
		return Message{}, errors.Wrap(err, "doip: reading payload body")
	}
	p, err := DecodePayload(h.Type, body)
	if err != nil {
		return Message{}, err
	}
	return Message{Version: h.Version, Payload: p}, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Client) send(p Payload) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(EncodeMessage(c.version, p))
	return errors.Wrap(err, "doip: writing payload")
}

// await blocks until a message of type want arrives or ctx/timeout fires.
// A HeaderNegative is returned as a *HeaderNegativeError; messages of any
// other type are dropped with a debug log, matching the teacher's "ignore
// frames that don't match" pattern in uds.Read.
func (c *Client) await(ctx context.Context, timeout time.Duration, want PayloadType) (Payload, error) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg.Payload.PayloadType() == PayloadHeaderNegative {
				return nil, &HeaderNegativeError{Code: msg.Payload.(HeaderNegative).Code}
			}
			if msg.Payload.PayloadType() != want {
				c.log.WithField("type", msg.Payload.PayloadType()).Debug("doip: dropping unexpected payload type")
				continue
			}
			return msg.Payload, nil
		case err := <-c.errs:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, errors.Errorf("doip: timed out waiting for %s", want)
		}
	}
}

// RoutingActivation performs the TCP routing activation handshake
// (spec.md §4.6) and records EntityAddress on success.
func (c *Client) RoutingActivation(ctx context.Context, activationType RoutingActiveType) (*RespRoutingActive, error) {
	if err := c.send(ReqRoutingActive{SourceAddress: c.SourceAddress, ActivationType: activationType}); err != nil {
		return nil, err
	}
	p, err := c.await(ctx, 10*time.Second, PayloadRespRoutingActive)
	if err != nil {
		return nil, err
	}
	resp := p.(RespRoutingActive)
	if !resp.Code.Success() {
		// Every rejection code must close the TCP stream; the entity
		// considers the socket consumed once it has refused activation.
		c.Close()
		return &resp, &ActiveError{Code: resp.Code}
	}
	c.EntityAddress = resp.EntityAddress
	return &resp, nil
}

// AliveCheck sends 0x0007 and returns the entity's 0x0008 response.
func (c *Client) AliveCheck(ctx context.Context) (*RespAliveCheck, error) {
	if err := c.send(ReqAliveCheck{}); err != nil {
		return nil, err
	}
	p, err := c.await(ctx, 5*time.Second, PayloadRespAliveCheck)
	if err != nil {
		return nil, err
	}
	resp := p.(RespAliveCheck)
	return &resp, nil
}

// EntityStatus sends 0x4001 and returns the entity's 0x4002 response.
func (c *Client) EntityStatus(ctx context.Context) (*RespEntityStatus, error) {
	if err := c.send(ReqEntityStatus{}); err != nil {
		return nil, err
	}
	p, err := c.await(ctx, 5*time.Second, PayloadRespEntityStatus)
	if err != nil {
		return nil, err
	}
	resp := p.(RespEntityStatus)
	return &resp, nil
}

// DiagnosticPowerMode sends 0x4003 and returns the entity's 0x4004
// response.
func (c *Client) DiagnosticPowerMode(ctx context.Context) (*RespDiagPowerMode, error) {
	if err := c.send(ReqDiagPowerMode{}); err != nil {
		return nil, err
	}
	p, err := c.await(ctx, 5*time.Second, PayloadRespDiagPowerMode)
	if err != nil {
		return nil, err
	}
	resp := p.(RespDiagPowerMode)
	return &resp, nil
}

// Diagnostic tunnels a UDS request to dst (0x8001), waits for the
// positive/negative routing ACK (0x8002/0x8003), then waits for the
// entity's own 0x8001 carrying the UDS response.
func (c *Client) Diagnostic(ctx context.Context, dst LogicalAddress, udsRequest []byte) ([]byte, error) {
	if err := c.send(Diagnostic{DstAddr: dst, SrcAddr: c.SourceAddress, Data: udsRequest}); err != nil {
		return nil, err
	}
	if err := c.awaitDiagnosticAck(ctx); err != nil {
		return nil, err
	}
	p, err := c.await(ctx, 10*time.Second, PayloadDiagnostic)
	if err != nil {
		return nil, err
	}
	resp := p.(Diagnostic)
	return resp.Data, nil
}

func (c *Client) awaitDiagnosticAck(ctx context.Context) error {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-c.messages:
			switch t := msg.Payload.(type) {
			case DiagnosticPositive:
				return nil
			case DiagnosticNegative:
				return &DiagnosticNegativeError{Code: t.Code, PreviousData: t.PreviousData}
			case HeaderNegative:
				return &HeaderNegativeError{Code: t.Code}
			default:
				continue
			}
		case err := <-c.errs:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return errors.New("doip: timed out waiting for diagnostic ACK")
		}
	}
}

// VehicleIdentification broadcasts a ReqVehicleID over UDP to broadcastAddr
// (e.g. "255.255.255.255:13400") and collects every RespVehicleID received
// within timeout — entities reply individually, so more than one is
// expected on a real network (spec.md §4.6 "UDP vehicle identification").
func VehicleIdentification(ctx context.Context, broadcastAddr string, version Version, timeout time.Duration, log *logrus.Entry) ([]RespVehicleID, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	raddr, err := net.ResolveUDPAddr("udp", broadcastAddr)
	if err != nil {
		return nil, errors.Wrap(err, "doip: resolving broadcast address")
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, errors.Wrap(err, "doip: opening UDP socket")
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP(EncodeMessage(version, ReqVehicleID{}), raddr); err != nil {
		return nil, errors.Wrap(err, "doip: sending vehicle identification broadcast")
	}

	var results []RespVehicleID
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 2048)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		conn.SetReadDeadline(time.Now().Add(remaining))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			break
		}
		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			log.WithError(err).Debug("doip: dropping undecodable vehicle identification reply")
			continue
		}
		if resp, ok := msg.Payload.(RespVehicleID); ok {
			results = append(results, resp)
		}
	}
	return results, nil
}
