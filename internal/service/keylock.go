package service

import (
	"strconv"
	"sync"
)

// keyLocks serializes work per key. The zero value is ready to use.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until key is free and returns its release func. An empty key never blocks.
func (k *keyLocks) lock(key string) func() {
	if key == "" {
		return func() {}
	}

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l := k.locks[key]
	if l == nil {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// inflightKey picks what a payment serializes on: its booking, else its idempotency key.
func inflightKey(userID int64, req PaymentRequest) string {
	if req.BookingID != 0 {
		return "booking:" + strconv.FormatInt(req.BookingID, 10)
	}
	if req.IdempotencyKey != "" {
		return attemptKey(userID, req.IdempotencyKey)
	}
	return ""
}
