// Package serial implements isotp.CanDriver over a USB-serial adapter
// speaking the byte-stuffed, CRC-8-checked framing protocol the teacher's
// drivers/arduino.go used for its Arduino CAN-to-serial bridge. The
// pause/resume/context-cancelable read loop and the wire framing are kept
// verbatim; SendCanBusFrame/ReadCanBusFrame are generalised into the
// isotp.CanDriver interface (multi-listener fan-out instead of a single
// frames channel) and received frames carry a channel tag. The wire format
// still carries a 2-byte CAN ID: only 11-bit identifiers pass through
// intact, an extended ID is sent as its low 16 bits, and received frames
// are always marked standard (Extended false).
package serial

import (
	"bufio"
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/keestucker-fork/diagkit/canbus"
)

const (
	BaudRate    = 115200
	StartMarker = 0x7E
	EndMarker   = 0x7F
	EscapeChar  = 0x1B
)

// usbVendorIDs lists VIDs of USB-serial chips commonly found on Arduino and
// Arduino-compatible CAN bridges.
var usbVendorIDs = map[string]bool{"2341": true, "1A86": true, "2A03": true}

// Driver is a byte-stuffed serial CAN bridge bound to one channel name.
type Driver struct {
	port   serial.Port
	reader *bufio.Reader
	log    *logrus.Entry

	channel string

	ctx    context.Context
	cancel context.CancelFunc

	writeMutex sync.Mutex
	pauseChan  chan struct{}
	resumeChan chan struct{}

	mu        sync.Mutex
	listeners map[string]chan<- canbus.Frame

	errorChan chan error
	readDone  sync.WaitGroup
}

// Open auto-detects a USB-serial CAN bridge and starts its read loop.
// portName may be given explicitly; pass "" to auto-detect via VID.
func Open(portName, channel string, log *logrus.Entry) (*Driver, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if portName == "" {
		var err error
		portName, err = findPortName()
		if err != nil {
			return nil, err
		}
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: BaudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "serial: opening %q", portName)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Driver{
		port:       port,
		reader:     bufio.NewReader(port),
		log:        log.WithField("channel", channel),
		channel:    channel,
		ctx:        ctx,
		cancel:     cancel,
		pauseChan:  make(chan struct{}, 1),
		resumeChan: make(chan struct{}, 1),
		listeners:  make(map[string]chan<- canbus.Frame),
		errorChan:  make(chan error, 1),
	}
	d.readDone.Add(1)
	go d.readLoop()
	return d, nil
}

func findPortName() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", errors.Wrap(err, "serial: enumerating ports")
	}
	for _, port := range ports {
		if port.IsUSB && usbVendorIDs[port.VID] {
			return port.Name, nil
		}
	}
	return "", errors.New("serial: no USB CAN bridge found")
}

// Close cancels the read loop and closes the port. The port is closed
// before the read loop is awaited: readFrame blocks in a port read that
// only the port closing, not ctx cancellation, can unblock.
func (d *Driver) Close() error {
	d.cancel()
	err := d.port.Close()
	d.readDone.Wait()
	return err
}

// SendFrame pauses the read loop, writes the stuffed frame, then resumes.
// Pausing avoids racing the port's single reader/writer pair the way
// ArduinoDriver.SendCanBusFrame did.
func (d *Driver) SendFrame(ctx context.Context, frame canbus.Frame) error {
	if len(frame.Data) > canbus.MaxClassicDLC {
		return errors.Errorf("serial: frame data length %d exceeds classic DLC", len(frame.Data))
	}
	d.writeMutex.Lock()
	defer d.writeMutex.Unlock()

	if err := d.pauseReading(ctx); err != nil {
		return err
	}
	defer d.resumeReading()

	_, err := d.port.Write(encodeFrame(frame))
	return errors.Wrap(err, "serial: writing frame")
}

// RegisterListener subscribes ch to every frame this driver receives.
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

func (d *Driver) pauseReading(ctx context.Context) error {
	select {
	case d.pauseChan <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return errors.New("serial: timeout pausing read loop")
	}
}

func (d *Driver) resumeReading() {
	select {
	case d.resumeChan <- struct{}{}:
	case <-time.After(time.Second):
		d.log.Warn("serial: timeout resuming read loop")
	}
}

func (d *Driver) readLoop() {
	defer d.readDone.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.pauseChan:
			select {
			case <-d.resumeChan:
			case <-d.ctx.Done():
				return
			}
		default:
			frame, err := d.readFrame()
			if err != nil {
				select {
				case d.errorChan <- err:
				default:
				}
				d.log.WithError(err).Warn("serial: read loop exiting")
				return
			}
			d.broadcast(frame)
		}
	}
}

func (d *Driver) broadcast(frame canbus.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, ch := range d.listeners {
		select {
		case ch <- frame:
		default:
			d.log.WithField("listener", name).Warn("serial: listener channel full, dropping frame")
		}
	}
}

func (d *Driver) readFrame() (canbus.Frame, error) {
	unstuffed, err := d.readAndUnstuff()
	if err != nil {
		return canbus.Frame{}, err
	}
	if len(unstuffed) < 4 {
		return canbus.Frame{}, errors.New("serial: incomplete frame")
	}
	id := uint32(unstuffed[0])<<8 | uint32(unstuffed[1])
	dlc := int(unstuffed[2])
	if dlc > canbus.MaxClassicDLC {
		return canbus.Frame{}, errors.Errorf("serial: invalid DLC %d", dlc)
	}
	if len(unstuffed) < 3+dlc+1 {
		return canbus.Frame{}, errors.Errorf("serial: expected %d bytes, got %d", 3+dlc+1, len(unstuffed))
	}
	data := unstuffed[3 : 3+dlc]
	received := unstuffed[3+dlc]
	if calculateCRC8(data) != received {
		return canbus.Frame{}, errors.New("serial: checksum mismatch")
	}
	return canbus.NewFrame(d.channel, id, false, data), nil
}

func (d *Driver) readAndUnstuff() ([]byte, error) {
	for {
		b, err := d.reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == StartMarker {
			break
		}
	}
	var out []byte
	for {
		b, err := d.reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == EndMarker {
			return out, nil
		}
		if b == EscapeChar {
			tag, err := d.reader.ReadByte()
			if err != nil {
				return nil, err
			}
			switch tag {
			case 0x01:
				out = append(out, StartMarker)
			case 0x02:
				out = append(out, EndMarker)
			case 0x03:
				out = append(out, EscapeChar)
			default:
				return nil, errors.Errorf("serial: invalid escape sequence 0x%02X", tag)
			}
			continue
		}
		out = append(out, b)
	}
}

func encodeFrame(frame canbus.Frame) []byte {
	out := []byte{StartMarker}
	stuff := func(b byte) {
		switch b {
		case StartMarker:
			out = append(out, EscapeChar, 0x01)
		case EndMarker:
			out = append(out, EscapeChar, 0x02)
		case EscapeChar:
			out = append(out, EscapeChar, 0x03)
		default:
			out = append(out, b)
		}
	}
	stuff(byte(frame.ID >> 8))
	stuff(byte(frame.ID))
	stuff(byte(len(frame.Data)))
	for _, b := range frame.Data {
		stuff(b)
	}
	stuff(calculateCRC8(frame.Data))
	return append(out, EndMarker)
}

// calculateCRC8 computes a CRC-8-CCITT checksum over data.
func calculateCRC8(data []byte) byte {
	const polynomial = byte(0x07)
	crc := byte(0x00)
	for _, b := range data {
		crc ^= b
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
