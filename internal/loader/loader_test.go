package loader

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateIsIdle(t *testing.T) {
	for _, policy := range []Policy{PolicyFlag, PolicyCounted} {
		t.Run(string(policy), func(t *testing.T) {
			s := New(policy)
			assert.False(t, s.Active())
			assert.Equal(t, 0, s.InFlight())
			assert.True(t, s.Snapshot().ChangedAt.IsZero())
		})
	}
}

func TestNewDefaultsToCounted(t *testing.T) {
	assert.Equal(t, PolicyCounted, New("").Policy())
}

func TestStateMachineTransitions(t *testing.T) {
	for _, policy := range []Policy{PolicyFlag, PolicyCounted} {
		t.Run(string(policy), func(t *testing.T) {
			s := New(policy)

			// idle --End--> idle
			s.End()
			assert.False(t, s.Active())

			// idle --Begin--> busy
			s.Begin()
			assert.True(t, s.Active())
			assert.False(t, s.Snapshot().ChangedAt.IsZero())

			// busy --End--> idle
			s.End()
			assert.False(t, s.Active())
			assert.Equal(t, 0, s.InFlight())
		})
	}
}

func TestBeginIsIdempotentForFlag(t *testing.T) {
	s := New(PolicyFlag)
	s.Begin()
	s.Begin()
	assert.True(t, s.Active())
	assert.Equal(t, 1, s.InFlight())

	s.End()
	assert.False(t, s.Active())
}

// A begins, B begins, A ends, B ends.
func TestInterleavedRequests(t *testing.T) {
	t.Run("flag reports idle while B is outstanding", func(t *testing.T) {
		s := New(PolicyFlag)
		s.Begin() // A
		s.Begin() // B
		s.End()   // A
		assert.False(t, s.Active(), "single flag loses track of B")
		s.End() // B
		assert.False(t, s.Active())
	})

	t.Run("counted stays busy until B ends", func(t *testing.T) {
		s := New(PolicyCounted)
		s.Begin() // A
		s.Begin() // B
		s.End()   // A
		assert.True(t, s.Active())
		assert.Equal(t, 1, s.InFlight())
		s.End() // B
		assert.False(t, s.Active())
	})
}

func TestCountedEndNeverGoesNegative(t *testing.T) {
	s := New(PolicyCounted)
	s.End()
	s.End()
	s.Begin()
	assert.True(t, s.Active())
	assert.Equal(t, 1, s.InFlight())
}

func TestAcquireReleaseIsIdempotent(t *testing.T) {
	s := New(PolicyCounted)
	other := s.Acquire()
	release := s.Acquire()
	require.Equal(t, 2, s.InFlight())

	release()
	release()
	assert.Equal(t, 1, s.InFlight(), "second release must not end another caller's work")

	other()
	assert.False(t, s.Active())
}

func TestSubscribeFiresOnTransitionsOnly(t *testing.T) {
	s := New(PolicyCounted)

	var seen []bool
	cancel := s.Subscribe(func(active bool) {
		seen = append(seen, active)
	})

	s.Begin()
	s.Begin()
	s.End()
	s.End()
	s.End()

	assert.Equal(t, []bool{true, false}, seen)

	cancel()
	s.Begin()
	assert.Len(t, seen, 2, "cancelled observer must not be called")
}

func TestSubscribeNilIsNoop(t *testing.T) {
	s := New(PolicyFlag)
	cancel := s.Subscribe(nil)
	cancel()
	s.Begin()
	assert.True(t, s.Active())
}

func TestConcurrentAcquireLeavesIdle(t *testing.T) {
	s := New(PolicyCounted)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := s.Acquire()
			defer release()
		}()
	}
	wg.Wait()

	assert.False(t, s.Active())
	assert.Equal(t, 0, s.InFlight())
}

func TestObserversSeeAlternatingTransitions(t *testing.T) {
	s := New(PolicyCounted)

	var mu sync.Mutex
	var seen []bool
	s.Subscribe(func(active bool) {
		mu.Lock()
		seen = append(seen, active)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire()()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i, active := range seen {
		assert.Equal(t, i%2 == 0, active, "transition %d out of order", i)
	}
	assert.False(t, seen[len(seen)-1])
}

func TestObserverCanReadStateDuringConcurrentAcquire(t *testing.T) {
	for _, policy := range []Policy{PolicyFlag, PolicyCounted} {
		t.Run(string(policy), func(t *testing.T) {
			s := New(policy)

			var mu sync.Mutex
			var reads int
			s.Subscribe(func(active bool) {
				time.Sleep(time.Millisecond)
				_ = s.Active()
				_ = s.Snapshot()
				_ = s.InFlight()
				mu.Lock()
				reads++
				mu.Unlock()
			})

			done := make(chan struct{})
			go func() {
				defer close(done)
				var wg sync.WaitGroup
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for j := 0; j < 50; j++ {
							s.Acquire()()
						}
					}()
				}
				wg.Wait()
			}()

			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatal("Begin/End blocked while an observer read the state")
			}

			assert.False(t, s.Active())
			mu.Lock()
			defer mu.Unlock()
			assert.Positive(t, reads)
		})
	}
}

func TestObserverSeesCommittedState(t *testing.T) {
	s := New(PolicyCounted)

	var got []Snapshot
	s.Subscribe(func(active bool) {
		got = append(got, s.Snapshot())
	})

	release := s.Acquire()
	release()

	require.Len(t, got, 2)
	assert.True(t, got[0].Active)
	assert.Equal(t, 1, got[0].InFlight)
	assert.False(t, got[1].Active)
	assert.Equal(t, 0, got[1].InFlight)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCounted, p)

	p, err = ParsePolicy(" FLAG ")
	require.NoError(t, err)
	assert.Equal(t, PolicyFlag, p)

	_, err = ParsePolicy("semaphore")
	assert.Error(t, err)
}
