package main

/*
 * MemLimiter:
 *    Limits amount of decoded files in ram. does not count any bytes!
 *
 * in this app:
 *     aquires slot before decoding a file
 *     releases slot after the file has been stored
 *
 *     a name holds at most one slot: a second file with the same
 *     name waits until the first one is stored and does not race it.
 */

import (
	"context"
	"slices"
	"sync"
	"time"
)

type MemLimiter struct {
	mem_max int
	waiting int
	memchan chan struct{}
	memdata []string
	mux     sync.RWMutex
}

func NewMemLimiter(value int) *MemLimiter {
	if value <= 0 {
		value = 1 // can't have 0 objects in ram...
	}
	memlim := &MemLimiter{
		memchan: make(chan struct{}, value),
		mem_max: value,
	}
	for i := 1; i <= value; i++ {
		// fills chan with empty structs
		//   so workers can suck here
		//     to get a slot out and refill when done
		memlim.memchan <- struct{}{}
	}
	dlog(debugOn(), "NewMemLimiter: max=%d avail=%d", value, len(memlim.memchan))
	return memlim
} // end func NewMemLimiter

func (m *MemLimiter) Usage() (int, int) {
	used_slots := m.mem_max - len(m.memchan)
	return used_slots, m.mem_max
} // end func memlim.Usage

func (m *MemLimiter) Waiting() int {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.waiting
}

func (m *MemLimiter) ViewData() (data []string) {
	m.mux.RLock()
	data = slices.Clone(m.memdata)
	m.mux.RUnlock()
	return
} // end func memlim.ViewData

// MemCheckWait blocks until a slot is free and who holds none.
func (m *MemLimiter) MemCheckWait(ctx context.Context, who string) error {
	m.mux.Lock()
	m.waiting++
	m.mux.Unlock()
	defer func() {
		m.mux.Lock()
		m.waiting--
		m.mux.Unlock()
	}()

	for {
		m.mux.RLock()
		inmem := slices.Contains(m.memdata, who)
		m.mux.RUnlock()
		if !inmem {
			break
		}
		dlog(always, "WAIT! already inmem who='%s'", who)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	} // end for inmem

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.memchan: // gets a slot from chan
	}

	m.mux.Lock()
	if slices.Contains(m.memdata, who) {
		// lost the race for who: give the slot back and wait again
		m.mux.Unlock()
		m.memchan <- struct{}{}
		return m.MemCheckWait(ctx, who)
	}
	m.memdata = append(m.memdata, who)
	m.mux.Unlock()
	return nil
} // end func memlim.MemCheckWait

func (m *MemLimiter) MemReturn(who string) {
	m.mux.Lock()
	if i := slices.Index(m.memdata, who); i >= 0 {
		m.memdata = slices.Delete(m.memdata, i, i+1)
	}
	m.mux.Unlock()
	m.memchan <- struct{}{}
} // end func memlim.MemReturn
