package chord

import (
	"sync"
	"time"
)

// Stabilizer is the periodic task described in spec.md §4.F: it probes
// the successor, adopts a closer successor if stabilization reveals one,
// and reaps dead peers. Its interval oscillates between the nominal
// period and a fast re-poll period the way the teacher's HeartbeatManager
// oscillates a single fixed interval, generalized here to the two-speed
// schedule the spec requires.
type Stabilizer struct {
	ring *Ring
	log  Logger

	stop chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func newStabilizer(ring *Ring, log Logger) *Stabilizer {
	return &Stabilizer{
		ring: ring,
		log:  log,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (s *Stabilizer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)
		s.run()
	}()
}

func (s *Stabilizer) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Stabilizer) run() {
	timer := time.NewTimer(s.ring.cfg.FastStabilizeInterval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
			fast := s.tick()
			if fast {
				timer.Reset(s.ring.cfg.FastStabilizeInterval)
			} else {
				timer.Reset(s.ring.cfg.StabilizeInterval)
			}
		}
	}
}

// tick runs one stabilization pass and reports whether the next tick
// should use the fast re-poll interval.
func (s *Stabilizer) tick() bool {
	r := s.ring
	fast := false

	r.mu.RLock()
	succ, pred := r.successor, r.predecessor
	r.mu.RUnlock()

	if succ == nil && pred != nil {
		s.log.Debug().Msg("stabilize: no successor, promoting predecessor")
		if _, err := pred.EnsureOutbound(); err != nil {
			s.log.Warn().Err(err).Msg("stabilize: could not connect to promoted successor")
		}
		r.setSuccessor(pred)
		succ = pred
	}

	if succ != nil {
		p, err := succ.GetPredecessorFromRemote(r.self)
		if err != nil {
			s.log.Debug().Err(err).Msg("stabilize: successor unreachable, retrying connect")
			if _, connErr := succ.EnsureOutbound(); connErr != nil {
				s.log.Warn().Err(connErr).Msg("stabilize: successor unreachable, dropping")
				r.setSuccessor(nil)
			}
		} else if p.ID != r.self.ID {
			s.log.Debug().Stringer("candidate", p).Msg("stabilize: adopting closer successor")
			succ.CloseOutbound()
			newSucc := r.getOrCreatePeerLink(p)
			if _, err := newSucc.EnsureOutbound(); err != nil {
				s.log.Warn().Err(err).Msg("stabilize: could not connect to new successor")
			}
			r.setSuccessor(newSucc)
			fast = true
		}
	}

	r.mu.RLock()
	pred = r.predecessor
	r.mu.RUnlock()
	if pred != nil && !pred.IsAlive() {
		s.log.Debug().Msg("stabilize: predecessor dead")
		r.removeKnownPeer(pred.ID())
		r.mu.Lock()
		if r.predecessor == pred {
			r.predecessor = nil
		}
		r.mu.Unlock()
	}

	r.mu.RLock()
	succ, pred = r.successor, r.predecessor
	r.mu.RUnlock()
	for _, pl := range r.knownPeerSnapshot() {
		if pl == succ || pl == pred {
			continue
		}
		if !pl.IsAlive() {
			r.removeKnownPeer(pl.ID())
		}
	}

	return fast
}
