package uds

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ResponseBroadcaster fans a Client's received responses out to any number
// of passive observers (logging, a UI, a recorder), without coupling the
// Client's send/await loop to how many listeners exist. Adapted from the
// teacher's MessageBroadcaster, generalized from *Message to *Response.
type ResponseBroadcaster struct {
	subscribers map[chan *Response]struct{}
	lock        sync.RWMutex
	log         *logrus.Entry
}

// NewResponseBroadcaster creates an empty ResponseBroadcaster.
func NewResponseBroadcaster(log *logrus.Entry) *ResponseBroadcaster {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ResponseBroadcaster{subscribers: make(map[chan *Response]struct{}), log: log}
}

// Subscribe adds a new subscriber and returns its channel.
func (b *ResponseBroadcaster) Subscribe() chan *Response {
	ch := make(chan *Response, 128)
	b.lock.Lock()
	b.subscribers[ch] = struct{}{}
	b.lock.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber's channel.
func (b *ResponseBroadcaster) Unsubscribe(ch chan *Response) {
	b.lock.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.lock.Unlock()
}

// Broadcast sends resp to every current subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the sender.
func (b *ResponseBroadcaster) Broadcast(resp *Response) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- resp:
		default:
			b.log.Warn("uds: slow response subscriber, dropping message")
		}
	}
}

// Cleanup unsubscribes and closes every subscriber channel.
func (b *ResponseBroadcaster) Cleanup() {
	b.lock.Lock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.lock.Unlock()
}
