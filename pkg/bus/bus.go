// Package bus is a small keyed publish/subscribe hub.
//
// A single worker delivers messages, so every subscriber observes messages in
// publish order. Delivery blocks on slow subscribers; give them a buffer.
package bus

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

type key interface {
	comparable
}

type message interface {
	any
}

type Message[K key, M message] struct {
	Key     K
	Message M
}

type Bus[K key, M message] struct {
	log        *zap.Logger
	bufferSize int
	done       chan struct{}

	ch         chan Message[K, M]
	unsub      chan chan Message[K, M]
	keySubs    *xsync.MapOf[K, map[chan Message[K, M]]struct{}]
	globalSubs *xsync.MapOf[chan Message[K, M], struct{}]
	subKeys    *xsync.MapOf[chan Message[K, M], []K]
}

type Option func(*busOptions)

type busOptions struct {
	bufferSize int
}

// WithBufferSize sets the channel capacity handed to subscribers.
func WithBufferSize(n int) Option {
	return func(o *busOptions) {
		o.bufferSize = n
	}
}

func NewBus[K key, M message](logger *zap.Logger, opts ...Option) *Bus[K, M] {
	options := busOptions{bufferSize: 64}
	for _, opt := range opts {
		opt(&options)
	}
	return &Bus[K, M]{
		log:        logger,
		bufferSize: options.bufferSize,
		done:       make(chan struct{}),

		ch:         make(chan Message[K, M]),
		unsub:      make(chan chan Message[K, M]),
		keySubs:    xsync.NewMapOf[K, map[chan Message[K, M]]struct{}](),
		globalSubs: xsync.NewMapOf[chan Message[K, M], struct{}](),
		subKeys:    xsync.NewMapOf[chan Message[K, M], []K](),
	}
}

// Start launches the delivery worker. It returns immediately; the worker
// stops when ctx is done.
func (b *Bus[K, M]) Start(ctx context.Context) error {
	if b.bufferSize < 0 {
		return fmt.Errorf("buffer size must not be negative")
	}
	go func() {
		defer close(b.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-b.ch:
				b.process(ctx, msg)
			case ch := <-b.unsub:
				b.remove(ch)
			}
		}
	}()
	return nil
}

func (b *Bus[K, M]) Publish(ctx context.Context, key K, msg M) {
	select {
	case <-ctx.Done():
		return
	case b.ch <- Message[K, M]{key, msg}:
	}
}

func (b *Bus[K, M]) process(ctx context.Context, msg Message[K, M]) {
	b.globalSubs.Range(func(sub chan Message[K, M], _ struct{}) bool {
		select {
		case <-ctx.Done():
			return false
		case sub <- msg:
		}
		return true
	})
	subs, ok := b.keySubs.Load(msg.Key)
	if !ok {
		return
	}
	for sub := range subs {
		select {
		case <-ctx.Done():
			return
		case sub <- msg:
		}
	}
}

// Subscribe returns a channel receiving messages for the given keys, or for
// every key when none are given. The channel is closed once ctx is done.
func (b *Bus[K, M]) Subscribe(ctx context.Context, key ...K) <-chan Message[K, M] {
	ch := make(chan Message[K, M], b.bufferSize)
	if len(key) == 0 {
		b.globalSubs.Store(ch, struct{}{})
	} else {
		b.subKeys.Store(ch, key)
		for _, k := range key {
			b.keySubs.Compute(k, func(val map[chan Message[K, M]]struct{}, ok bool) (map[chan Message[K, M]]struct{}, bool) {
				next := make(map[chan Message[K, M]]struct{}, len(val)+1)
				for sub := range val {
					next[sub] = struct{}{}
				}
				next[ch] = struct{}{}
				return next, false
			})
		}
	}
	go func() {
		<-ctx.Done()
		select {
		case b.unsub <- ch:
		case <-b.done:
			b.remove(ch)
		}
	}()
	return ch
}

// remove drops a subscriber and closes its channel. It runs on the worker,
// or after the worker has exited, so no delivery can race the close.
func (b *Bus[K, M]) remove(ch chan Message[K, M]) {
	b.globalSubs.Delete(ch)
	keys, _ := b.subKeys.LoadAndDelete(ch)
	b.log.Debug("Subscriber removed", zap.Int("keys", len(keys)), zap.Int("pending", len(ch)))
	for _, k := range keys {
		b.keySubs.Compute(k, func(val map[chan Message[K, M]]struct{}, ok bool) (map[chan Message[K, M]]struct{}, bool) {
			next := make(map[chan Message[K, M]]struct{}, len(val))
			for sub := range val {
				if sub != ch {
					next[sub] = struct{}{}
				}
			}
			return next, len(next) == 0
		})
	}
	close(ch)
}
