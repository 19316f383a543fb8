package uds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keestucker-fork/diagkit/canbus"
	"github.com/keestucker-fork/diagkit/internal/candriver/memdriver"
	"github.com/keestucker-fork/diagkit/isotp"
)

// fakeECU drives the "ECU side" of a channel: it reads reassembled UDS
// requests off an isotp.Engine and replies with scripted response bytes.
type fakeECU struct {
	engine *isotp.Engine
}

func newTestChannel(t *testing.T) (*Client, *fakeECU) {
	t.Helper()
	bus := memdriver.NewBus()
	testerDriver := bus.NewDriver()
	ecuDriver := bus.NewDriver()

	timing := isotp.Timing{
		NAs: 200 * time.Millisecond,
		NBs: 200 * time.Millisecond,
		NCr: 200 * time.Millisecond,
		NCs: 200 * time.Millisecond,
		P2:  200 * time.Millisecond,
		P2S: 400 * time.Millisecond,
	}

	testerAddr := canbus.Address{TxID: 0x7E0, RxID: 0x7E8}
	ecuAddr := canbus.Address{TxID: 0x7E8, RxID: 0x7E0}

	testerEngine, err := isotp.NewEngine(testerDriver, "ch0", testerAddr, isotp.WithTiming(timing))
	require.NoError(t, err, "NewEngine tester")
	ecuEngine, err := isotp.NewEngine(ecuDriver, "ch0", ecuAddr, isotp.WithTiming(timing))
	require.NoError(t, err, "NewEngine ecu")
	t.Cleanup(func() {
		testerEngine.Close()
		ecuEngine.Close()
	})

	cfg := NewConfiguration()
	client := NewClient(testerEngine, cfg, nil)
	t.Cleanup(client.Close)

	return client, &fakeECU{engine: ecuEngine}
}

// recvRequest waits for the next fully reassembled request from the tester.
func (e *fakeECU) recvRequest(t *testing.T) []byte {
	t.Helper()
	for {
		select {
		case ev := <-e.engine.Events():
			if ev.Kind == isotp.EventDataReceived {
				return ev.Data
			}
		case <-time.After(2 * time.Second):
			t.Fatal("fakeECU: timed out waiting for a request")
		}
	}
}

func (e *fakeECU) reply(t *testing.T, data []byte) {
	t.Helper()
	err := e.engine.Write(context.Background(), canbus.Physical, data)
	require.NoError(t, err, "fakeECU: reply Write")
}

// Scenario 1 (spec.md §8): session control request/response updates timing.
func TestClientSessionControlUpdatesTiming(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.SessionCtrl(context.Background(), SessionProgramming)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x10, 0x02}, req)
	ecu.reply(t, []byte{0x50, 0x02, 0x00, 0x32, 0x01, 0xF4})

	<-done
	require.NoError(t, gotErr)
	assert.EqualValues(t, 50, client.timing.P2Ms)
	assert.EqualValues(t, 5000, client.timing.P2StarMs)
}

// Scenario 2 (spec.md §8): multi-frame VIN read reassembles to 17 bytes.
func TestClientReadDataByIdentifierMultiFrame(t *testing.T) {
	client, ecu := newTestChannel(t)
	client.cfg.AddDataIdentifier(0xF190, 17)

	done := make(chan struct{})
	var records []DataRecord
	var gotErr error
	go func() {
		records, gotErr = client.ReadDataByIdentifier(context.Background(), 0xF190)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x22, 0xF1, 0x90}, req)

	vin := []byte("00000000000000000")[:17]
	resp := append([]byte{0x62, 0xF1, 0x90}, vin...)
	ecu.reply(t, resp)

	<-done
	require.NoError(t, gotErr)
	require.Len(t, records, 1)
	assert.EqualValues(t, 0xF190, records[0].DID)
	assert.Equal(t, vin, records[0].Value)
}

// Scenario 3 (spec.md §8): two NRC 0x78 pending responses, then positive;
// the client must send a suppressed TesterPresent between each.
func TestClientResponsePendingRetryLoop(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.ECUReset(context.Background(), ResetHard)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x11, 0x01}, req)
	ecu.reply(t, []byte{0x7F, 0x11, 0x78})

	tp1 := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x3E, 0x80}, tp1, "expected suppressed TesterPresent")
	ecu.reply(t, []byte{0x7F, 0x11, 0x78})

	tp2 := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x3E, 0x80}, tp2, "expected second suppressed TesterPresent")
	ecu.reply(t, []byte{0x51, 0x01})

	<-done
	require.NoError(t, gotErr)
}

// Scenario 4 (spec.md §8): security access seed/key exchange.
func TestClientSecurityAccessUnlock(t *testing.T) {
	client, ecu := newTestChannel(t)
	client.cfg.SecurityAlgorithm = func(level byte, seed, salt []byte) ([]byte, error) {
		assert.EqualValues(t, 0x01, level)
		assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, seed)
		assert.Equal(t, []byte{0xAA}, salt)
		return []byte{0x55, 0x66, 0x77, 0x88}, nil
	}

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.UnlockSecurityAccess(context.Background(), SecurityAccessType(0x01), []byte{0xAA})
		close(done)
	}()

	seedReq := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x27, 0x01}, seedReq)
	ecu.reply(t, []byte{0x67, 0x01, 0x11, 0x22, 0x33, 0x44})

	keyReq := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x27, 0x02, 0x55, 0x66, 0x77, 0x88}, keyReq)
	ecu.reply(t, []byte{0x67, 0x02})

	<-done
	require.NoError(t, gotErr)
}

// A SecurityAlgorithm returning (nil, nil) means the seed alone satisfied
// the ECU: no key-level request should follow the seed request.
func TestClientSecurityAccessNilKeySatisfiesWithoutKeyRequest(t *testing.T) {
	client, ecu := newTestChannel(t)
	client.cfg.SecurityAlgorithm = func(level byte, seed, salt []byte) ([]byte, error) {
		return nil, nil
	}

	done := make(chan struct{})
	var resp *Response
	var gotErr error
	go func() {
		resp, gotErr = client.UnlockSecurityAccess(context.Background(), SecurityAccessType(0x01), nil)
		close(done)
	}()

	seedReq := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x27, 0x01}, seedReq)
	ecu.reply(t, []byte{0x67, 0x01, 0x00, 0x00, 0x00, 0x00})

	<-done
	require.NoError(t, gotErr)
	require.NotNil(t, resp)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, resp.Payload)
}

func TestClientNegativeResponseSurfacesNRCError(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.ECUReset(context.Background(), ResetHard)
		close(done)
	}()

	ecu.recvRequest(t)
	ecu.reply(t, []byte{0x7F, 0x11, 0x22}) // ConditionsNotCorrect

	<-done
	nrcErr, ok := gotErr.(*NRCError)
	require.True(t, ok, "expected *NRCError, got %T (%v)", gotErr, gotErr)
	assert.Equal(t, NRCConditionsNotCorrect, nrcErr.Code)
}

func TestClientSuppressPositiveTimeoutIsSuccess(t *testing.T) {
	client, _ := newTestChannel(t)
	// TesterPresent with suppress=true: no ECU ever replies, so send()
	// waits out the P2 budget and silence on timeout counts as success.
	resp, err := client.TesterPresent(context.Background(), true)
	require.NoError(t, err, "suppressed TesterPresent should not error on silence")
	assert.Nil(t, resp, "suppressed TesterPresent should return a nil response")
}

// Scenario from spec.md §8 "Client properties": suppress_positive + NRC is
// still an error, unlike suppress_positive + timeout.
func TestClientSuppressPositiveNRCIsStillError(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.TesterPresent(context.Background(), true)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x3E, 0x80}, req)
	ecu.reply(t, []byte{0x7F, 0x3E, 0x22}) // ConditionsNotCorrect

	<-done
	nrcErr, ok := gotErr.(*NRCError)
	require.True(t, ok, "expected *NRCError for suppressed request that got an NRC, got %T (%v)", gotErr, gotErr)
	assert.Equal(t, NRCConditionsNotCorrect, nrcErr.Code)
}

func TestClientUnexpectedSubFunctionError(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.SessionCtrl(context.Background(), SessionProgramming)
		close(done)
	}()

	ecu.recvRequest(t)
	// Echo the wrong sub-function (Default instead of Programming).
	ecu.reply(t, []byte{0x50, 0x01, 0x00, 0x32, 0x01, 0xF4})

	<-done
	_, ok := gotErr.(*UnexpectedSubFunctionError)
	assert.True(t, ok, "expected *UnexpectedSubFunctionError, got %T (%v)", gotErr, gotErr)
}

func TestClientTransferDataSequenceMismatch(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = client.TransferData(context.Background(), 0x01, []byte{0xAA})
		close(done)
	}()

	ecu.recvRequest(t)
	ecu.reply(t, []byte{0x76, 0x02}) // echoes 0x02 instead of 0x01

	<-done
	seqErr, ok := gotErr.(*UnexpectedTransferSequenceError)
	require.True(t, ok, "expected *UnexpectedTransferSequenceError, got %T (%v)", gotErr, gotErr)
	assert.EqualValues(t, 0x01, seqErr.Want)
	assert.EqualValues(t, 0x02, seqErr.Got)
}

func TestClientRequestUploadUsesCorrectService(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	go func() {
		client.RequestUpload(context.Background(), 0x00, MemoryAddressAndLength{Address: 0x1000, Size: 0x100})
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, byte(ServiceRequestUpload), req[0], "RequestUpload must send RequestUpload's service byte, not RequestDownload's")
	ecu.reply(t, []byte{0x75, 0x10, 0x00, 0x00})
	<-done
}

func TestClientDefineDataIdentifierByMemoryAddress(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	go func() {
		client.DefineDataIdentifierByMemoryAddress(context.Background(), 0xF200, []MemoryAddressAndLength{
			{Address: 0x1000, Size: 0x04, AddressBytes: 2, SizeBytes: 1},
		})
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x2C, 0x02, 0xF2, 0x00, 0x12, 0x10, 0x00, 0x04}, req)
	ecu.reply(t, []byte{0x6C, 0x02, 0xF2, 0x00})
	<-done
}

func TestClientClearDynamicallyDefinedDataIdentifierAll(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	go func() {
		client.ClearDynamicallyDefinedDataIdentifier(context.Background(), nil)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x2C, 0x03}, req)
	ecu.reply(t, []byte{0x6C, 0x03})
	<-done
}

func TestClientReadDataByPeriodicIdentifierStart(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	go func() {
		client.ReadDataByPeriodicIdentifier(context.Background(), SendAtFastRate, 0x01, 0x02)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x2A, 0x03, 0x01, 0x02}, req)
	ecu.reply(t, []byte{0x6A})
	<-done
}

func TestClientLinkControlTransition(t *testing.T) {
	client, ecu := newTestChannel(t)

	done := make(chan struct{})
	go func() {
		client.LinkControl(context.Background(), LinkTransitionBaudRate, nil)
		close(done)
	}()

	req := ecu.recvRequest(t)
	assert.Equal(t, []byte{0x87, 0x03}, req)
	ecu.reply(t, []byte{0xC7, 0x03})
	<-done
}

func TestClientResponseOnEventNotImplemented(t *testing.T) {
	client, _ := newTestChannel(t)
	_, err := client.ResponseOnEvent(context.Background(), 0x00, nil)
	_, ok := err.(*NotImplementedError)
	assert.True(t, ok, "expected *NotImplementedError, got %T (%v)", err, err)
}

func TestClientEditionGating(t *testing.T) {
	client, _ := newTestChannel(t)
	client.cfg.Edition = Edition2006
	_, err := client.Authentication(context.Background(), 0x00, nil)
	assert.Error(t, err, "expected Authentication to be refused under Edition2006")
	_, err = client.RequestFileTransfer(context.Background(), FileTransferReadFile, []byte("a"), nil)
	assert.Error(t, err, "expected RequestFileTransfer to be refused under Edition2006")

	client.cfg.Edition = Edition2020
	_, err = client.AccessTimingParameter(context.Background(), 0x01, nil)
	assert.Error(t, err, "expected AccessTimingParameter to be refused under Edition2020")
}
