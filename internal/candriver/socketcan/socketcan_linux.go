//go:build linux

// Package socketcan implements isotp.CanDriver over a Linux SocketCAN raw
// CAN_RAW socket via golang.org/x/sys/unix, grounded on
// _examples/notnil-canbus/socketcan_linux.go's bind/send/receive shape
// (translated from bare syscalls to the unix package's SockaddrCAN helper).
package socketcan

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/keestucker-fork/diagkit/canbus"
)

// frameSize is sizeof(struct can_frame): 4-byte ID, 1-byte DLC, 3 pad, 8
// data bytes.
const frameSize = 16

// Driver is a SocketCAN CAN_RAW binding for one interface (e.g. "can0").
type Driver struct {
	fd      int
	channel string
	log     *logrus.Entry

	mu        sync.Mutex
	listeners map[string]chan<- canbus.Frame

	cancel context.CancelFunc
	done   chan struct{}
}

// Open binds a CAN_RAW socket to iface and starts its receive loop,
// fanning every frame out to registered listeners tagged with channel.
func Open(iface, channel string, log *logrus.Entry) (*Driver, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, errors.Wrap(err, "socketcan: opening CAN_RAW socket")
	}
	idx, err := unix.IfNameToIndex(iface)
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "socketcan: resolving interface %q", iface)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: idx}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "socketcan: binding to %q", iface)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Driver{
		fd:        fd,
		channel:   channel,
		log:       log.WithField("channel", channel),
		listeners: make(map[string]chan<- canbus.Frame),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go d.readLoop(ctx)
	return d, nil
}

// Close stops the receive loop and closes the underlying socket. The fd
// is closed before the loop is awaited: it blocks in unix.Read, which only
// closing the fd (not ctx cancellation) can unblock.
func (d *Driver) Close() error {
	d.cancel()
	err := unix.Close(d.fd)
	<-d.done
	return err
}

// SendFrame encodes frame in the classic can_frame layout and writes it to
// the socket. It ignores frame.Channel; a Driver is bound to one interface.
func (d *Driver) SendFrame(ctx context.Context, frame canbus.Frame) error {
	if len(frame.Data) > canbus.MaxClassicDLC {
		return errors.Errorf("socketcan: frame data length %d exceeds classic DLC", len(frame.Data))
	}
	buf := make([]byte, frameSize)
	id := frame.ID
	if frame.Extended {
		id |= unix.CAN_EFF_FLAG
	}
	buf[0] = byte(id)
	buf[1] = byte(id >> 8)
	buf[2] = byte(id >> 16)
	buf[3] = byte(id >> 24)
	buf[4] = byte(len(frame.Data))
	copy(buf[8:], frame.Data)

	errCh := make(chan error, 1)
	go func() { _, err := unix.Write(d.fd, buf); errCh <- err }()
	select {
	case err := <-errCh:
		return errors.Wrap(err, "socketcan: writing frame")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterListener subscribes ch to every frame the socket receives.
func (d *Driver) RegisterListener(name string, ch chan<- canbus.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = ch
	return nil
}

// UnregisterListener removes a previously registered listener.
func (d *Driver) UnregisterListener(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, name)
}

func (d *Driver) readLoop(ctx context.Context) {
	defer close(d.done)
	buf := make([]byte, frameSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := unix.Read(d.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			d.log.WithError(err).Warn("socketcan: read loop exiting")
			return
		}
		if n != frameSize {
			continue
		}
		frame := decodeFrame(d.channel, buf)
		d.broadcast(frame)
	}
}

func decodeFrame(channel string, buf []byte) canbus.Frame {
	rawID := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	extended := rawID&unix.CAN_EFF_FLAG != 0
	id := rawID &^ (unix.CAN_EFF_FLAG | unix.CAN_RTR_FLAG | unix.CAN_ERR_FLAG)
	dlc := int(buf[4])
	if dlc > canbus.MaxClassicDLC {
		dlc = canbus.MaxClassicDLC
	}
	return canbus.NewFrame(channel, id, extended, buf[8:8+dlc])
}

func (d *Driver) broadcast(frame canbus.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, ch := range d.listeners {
		select {
		case ch <- frame:
		default:
			d.log.WithField("listener", name).Warn("socketcan: listener channel full, dropping frame")
		}
	}
}
