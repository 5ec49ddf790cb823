package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func TestKeyLocksSerializeSameKey(t *testing.T) {
	var (
		locks   keyLocks
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock("booking:5")
			defer release()

			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	assert.Zero(t, locks.size())
}

func TestKeyLocksEmptyKeyAndDistinctKeys(t *testing.T) {
	var locks keyLocks
	releaseA := locks.lock("a")
	releaseB := locks.lock("b")
	locks.lock("")()
	assert.Equal(t, 2, locks.size())
	releaseA()
	releaseB()
	assert.Zero(t, locks.size())
}

func TestInflightKey(t *testing.T) {
	assert.Equal(t, "booking:5", inflightKey(7, PaymentRequest{BookingID: 5, IdempotencyKey: "k"}))
	assert.Equal(t, "7:k", inflightKey(7, PaymentRequest{IdempotencyKey: "k"}))
	assert.Empty(t, inflightKey(7, PaymentRequest{}))
}
