package isotp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/keestucker-fork/diagkit/canbus"
	"github.com/keestucker-fork/diagkit/internal/registry"
)

// Engine hides ISO-TP segmentation, flow control and timer management
// behind a Write call and an event stream, per spec.md §4.2. One Engine
// owns one channel/address pair; the UDS client keeps one Engine per
// configured diagnostic channel.
type Engine struct {
	driver  CanDriver
	channel string
	addr    canbus.Address
	fd      bool
	fill    byte
	log     *logrus.Entry

	mu     sync.Mutex
	state  State
	timing Timing

	events chan Event
	rxRaw  chan canbus.Frame
	fc     chan Frame

	txMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithFD enables CAN-FD framing (up to 64 data bytes per PDU).
func WithFD() Option { return func(e *Engine) { e.fd = true } }

// WithFillByte overrides the padding byte used for unused trailing data
// (default 0xCC).
func WithFillByte(b byte) Option { return func(e *Engine) { e.fill = b } }

// WithTiming overrides the default N_As/N_Bs/N_Cr/N_Cs/P2/P2* budgets.
func WithTiming(t Timing) Option { return func(e *Engine) { e.timing = t } }

// WithLogger attaches a structured logger; without it the engine logs to
// the logger registered under registry.NameLogger, or else to logrus's
// standard logger.
func WithLogger(log *logrus.Entry) Option { return func(e *Engine) { e.log = log } }

// NewEngine builds an Engine bound to one channel/address pair and starts
// its receive-dispatch goroutine. Call Close to release driver resources.
//
// A nil driver falls back to whatever was registered under
// registry.NameCanDriver (the teacher's services.Get(ServiceCanDriver)
// pattern), so a process that wires one driver through the registry at
// startup doesn't have to thread it through every NewEngine call by hand.
// The logger defaults the same way from registry.NameLogger when
// WithLogger isn't supplied.
func NewEngine(driver CanDriver, channel string, addr canbus.Address, opts ...Option) (*Engine, error) {
	if driver == nil {
		d, _ := registry.Get(registry.NameCanDriver).(CanDriver)
		if d == nil {
			return nil, errors.New("isotp: no driver given and none registered under registry.NameCanDriver")
		}
		driver = d
	}
	log := logrus.NewEntry(logrus.StandardLogger())
	if registered, ok := registry.Get(registry.NameLogger).(*logrus.Entry); ok && registered != nil {
		log = registered
	}
	e := &Engine{
		driver:  driver,
		channel: channel,
		addr:    addr,
		fill:    0xCC,
		timing:  DefaultTiming(),
		events:  make(chan Event, 32),
		rxRaw:   make(chan canbus.Frame, 64),
		fc:      make(chan Frame, 4),
		done:    make(chan struct{}),
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := driver.RegisterListener(listenerKey(channel, addr.RxID), e.rxRaw); err != nil {
		return nil, errors.Wrap(err, "isotp: registering listener")
	}
	go e.dispatchLoop()
	return e, nil
}

func listenerKey(channel string, rxID uint32) string {
	return fmt.Sprintf("%s#%X", channel, rxID)
}

// Close stops the dispatch goroutine and unregisters from the driver.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.driver.UnregisterListener(listenerKey(e.channel, e.addr.RxID))
	})
}

// Events returns the engine's event stream. Any number of consumers may
// read from it; there is exactly one producer (the dispatch goroutine).
func (e *Engine) Events() <-chan Event { return e.events }

// UpdateTiming refreshes P2/P2* (and optionally the other budgets),
// called by the UDS client after a SessionControl positive response.
func (e *Engine) UpdateTiming(t Timing) {
	e.mu.Lock()
	e.timing = t
	e.mu.Unlock()
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) getState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) getTiming() Timing {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timing
}

// State exposes the current transmit-state bitset, mostly for tests.
func (e *Engine) State() State { return e.getState() }

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("isotp: event channel full, dropping event")
	}
}

// Write segments and sends payload, returning once the last PDU has been
// handed to the driver. It does not wait for the peer's UDS response; that
// is the caller's (UDS client's) job via Events().
func (e *Engine) Write(ctx context.Context, at canbus.AddressType, payload []byte) error {
	if st := e.getState(); st.has(StateSending) || st.has(StateWaitFlowCtrl) || st.has(StateWaitBusy) {
		return ErrBusy
	}
	e.txMu.Lock()
	defer e.txMu.Unlock()
	e.setState(StateIdle)

	frames, err := segment(payload, e.fd)
	if err != nil {
		e.setState(StateError)
		return err
	}

	id := e.addr.IDFor(at)

	if len(frames) == 1 {
		if err := e.sendOne(ctx, id, frames[0]); err != nil {
			e.setState(StateError)
			return err
		}
		e.setState(StateIdle)
		return nil
	}
	if at == canbus.Functional {
		return ErrFunctionalMultiFrame
	}

	e.setState(StateSending | StateWaitFlowCtrl)
	if err := e.sendOne(ctx, id, frames[0]); err != nil {
		e.setState(StateError)
		return err
	}

	remaining := frames[1:]
	for len(remaining) > 0 {
		bs, st, err := e.awaitFlowControl(ctx)
		if err != nil {
			e.setState(StateError)
			return err
		}
		e.setState(StateSending)
		limit := len(remaining)
		if bs > 0 && int(bs) < limit {
			limit = int(bs)
		}
		for i := 0; i < limit; i++ {
			if err := e.sendOne(ctx, id, remaining[0]); err != nil {
				e.setState(StateError)
				return err
			}
			remaining = remaining[1:]
			if len(remaining) > 0 || i < limit-1 {
				sleepST(st)
			}
		}
		if len(remaining) > 0 {
			e.setState(StateWaitFlowCtrl)
		}
	}
	e.setState(StateIdle)
	return nil
}

func (e *Engine) sendOne(ctx context.Context, id uint32, f Frame) error {
	data, err := EncodeFrame(f, e.fill, e.fd)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, e.getTiming().NAs)
	defer cancel()
	frame := canbus.NewFrame(e.channel, id, e.addr.Extended, data)
	if err := e.driver.SendFrame(cctx, frame); err != nil {
		if cctx.Err() != nil {
			return newTimeout(e.getTiming().NAs)
		}
		return errors.Wrap(ErrDeviceError, err.Error())
	}
	return nil
}

// awaitFlowControl waits for the next Flow Control PDU, applying N_Bs to
// the first wait and P2* to every subsequent wait triggered by an
// explicit Wait PDU (a Wait never resets the N_Bs budget's *meaning*, it
// just hands control of the clock to P2* per spec.md §4.2/§9).
func (e *Engine) awaitFlowControl(ctx context.Context) (blockSize byte, stMin byte, err error) {
	budget := e.getTiming().NBs
	for {
		select {
		case f := <-e.fc:
			switch f.FCState {
			case FCContinue:
				return f.BlockSize, f.STmin, nil
			case FCWait:
				e.setState(StateWaitBusy)
				budget = e.getTiming().P2S
				continue
			case FCOverflow:
				return 0, 0, ErrOverloadFlow
			default:
				continue
			}
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-time.After(budget):
			return 0, 0, newTimeout(budget)
		}
	}
}

// dispatchLoop is the engine's sole receive-path goroutine: it never
// blocks on anything but incoming frames and its own shutdown signal, so
// timeouts elsewhere are enforced purely by the waiting side's timers.
func (e *Engine) dispatchLoop() {
	var recvBuf []byte
	var recvTotal uint32
	var recvSeq byte
	receiving := false

	for {
		select {
		case <-e.done:
			return
		case raw := <-e.rxRaw:
			if raw.Channel != e.channel || raw.ID != e.addr.RxID {
				// Addressing filter (spec.md §4.2/§6): the driver is
				// shared across channels and CAN IDs; only frames
				// matching ours are ours to decode.
				continue
			}
			f, err := DecodeFrame(raw.Data, e.fd)
			if err != nil {
				e.log.WithError(err).Warn("isotp: dropping undecodable frame")
				continue
			}
			switch f.Kind {
			case KindFlowControl:
				if f.FCState == FCWait {
					e.emit(Event{Kind: EventWait})
				}
				select {
				case e.fc <- f:
				default:
					e.log.Warn("isotp: flow control channel full, dropping")
				}
			case KindSingle:
				e.emit(Event{Kind: EventDataReceived, Data: f.Data})
			case KindFirst:
				recvBuf = append([]byte{}, f.Data...)
				recvTotal = f.TotalLength
				recvSeq = 0
				receiving = true
				e.emit(Event{Kind: EventFirstFrameReceived, TotalLength: recvTotal})
				if err := e.sendDefaultFlowControl(); err != nil {
					e.emit(Event{Kind: EventErrorOccurred, Err: errors.Wrap(ErrDeviceError, err.Error())})
					receiving = false
				}
			case KindConsecutive:
				if !receiving {
					continue
				}
				want := (recvSeq + 1) & 0x0F
				if f.Sequence != want {
					e.emit(Event{Kind: EventErrorOccurred, Err: ErrInvalidSequence})
					receiving = false
					recvBuf = nil
					continue
				}
				recvSeq = want
				need := int(recvTotal) - len(recvBuf)
				chunk := f.Data
				if len(chunk) > need {
					chunk = chunk[:need]
				}
				recvBuf = append(recvBuf, chunk...)
				if len(recvBuf) >= int(recvTotal) {
					e.emit(Event{Kind: EventDataReceived, Data: recvBuf})
					receiving = false
					recvBuf = nil
				}
			}
		}
	}
}

// sendDefaultFlowControl replies Continue/bs=0/st=0x0A to a First Frame,
// on the engine's own tx identifier (the ECU listens for flow control on
// the id it expects our requests on).
func (e *Engine) sendDefaultFlowControl() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.getTiming().NAs)
	defer cancel()
	return e.sendOne(ctx, e.addr.TxID, Frame{Kind: KindFlowControl, FCState: FCContinue, BlockSize: 0, STmin: 0x0A})
}

func sleepST(st byte) {
	d := SeparationDelay(st)
	if d > 0 {
		<-time.After(d)
	}
}

// segment splits a payload into the PDUs needed to carry it, per
// spec.md §8: exactly one PDU if it fits a Single Frame, otherwise one
// First Frame followed by ceil((L-6)/7) Consecutive Frames (classic CAN,
// L <= 4095). Past 4095 bytes the long-form First Frame's 32-bit length
// leaves room for only maxDLC-6 data bytes (2 classic, 58 FD), so the
// Consecutive Frames start after those.
func segment(payload []byte, fd bool) ([]Frame, error) {
	singleMax := 7
	if fd {
		singleMax = 62
	}
	if len(payload) <= singleMax {
		return []Frame{{Kind: KindSingle, Data: payload}}, nil
	}

	chunkSize := 7
	if fd {
		chunkSize = 63
	}
	firstLen := 6
	if len(payload) > shortFirstLimit {
		firstLen = maxDLC(fd) - 6
	}
	first := Frame{Kind: KindFirst, TotalLength: uint32(len(payload)), Data: payload[:firstLen]}
	frames := []Frame{first}
	seq := byte(1)
	for off := firstLen; off < len(payload); {
		end := off + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, Frame{Kind: KindConsecutive, Sequence: seq & 0x0F, Data: payload[off:end]})
		seq++
		off = end
	}
	return frames, nil
}
