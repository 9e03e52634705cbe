package pathstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/mono"
	"github.com/ten-framework/ten-go/hk"
	"github.com/ten-framework/ten-go/msg"
	"github.com/ten-framework/ten-go/stats"
)

// Store tracks the in-flight paths for one hop (one extension's in-store or
// out-store). A single hk-registered sweep handles all of a store's
// expiry rather than one timer per command.
type Store struct {
	mu     sync.Mutex
	paths  map[string]*Path
	expiry time.Duration
	hkName string
	closed bool

	name  string
	stats *stats.Collector
}

// New creates a Store with the given default expiry (falls back to
// cmn.GCO.Get().PathExpiry when d is zero) and registers its sweep with hk.
func New(d time.Duration) *Store {
	if d == 0 {
		d = cmn.GCO.Get().PathExpiry
	}
	s := &Store{paths: make(map[string]*Path), expiry: d}
	s.hkName = fmt.Sprintf("pathstore-%p", s) + hk.NameSuffix
	hk.Reg(s.hkName, s.sweep, sweepInterval)
	return s
}

const sweepInterval = 200 * time.Millisecond

// Add registers a new path. Per cmd_id, at most one Path may be
// outstanding in a given Store at a time.
func (s *Store) Add(p *Path) error {
	if p.expiry == 0 {
		p.expiry = s.expiry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.paths[p.CmdID]; exists {
		return cmn.NewError(cmn.Generic, "pathstore: duplicate path for cmd_id %s", p.CmdID)
	}
	s.paths[p.CmdID] = p
	return nil
}

// Resolve delivers result to the path registered for result's cmd_id.
// A final result retires the path, so a later result for the same cmd_id
// finds no path: it is not delivered and Resolve returns a
// MsgNotConnected error. Non-final
// (streaming) results are forwarded without retiring the path.
func (s *Store) Resolve(result msg.Message) error {
	cmdID := result.CmdID()
	s.mu.Lock()
	p, ok := s.paths[cmdID]
	if !ok {
		s.mu.Unlock()
		return cmn.NewError(cmn.MsgNotConnected, "pathstore: no path for cmd_id %s", cmdID)
	}
	if p.lastResultSeen {
		s.mu.Unlock()
		return nil
	}
	isFinal := result.Result() != nil && result.Result().IsFinal
	if isFinal {
		p.lastResultSeen = true
		delete(s.paths, cmdID)
	}
	s.mu.Unlock()

	p.onResult(result)
	return nil
}

// Get returns the path for cmdID, if any, without mutating the store.
func (s *Store) Get(cmdID string) (*Path, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.paths[cmdID]
	return p, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// sweep is the hk-registered callback: it retires every expired path with
// a synthesised Timeout result and reschedules itself.
func (s *Store) sweep() time.Duration {
	now := mono.NanoTime()
	var expired []*Path
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return hk.UnregInterval
	}
	for id, p := range s.paths {
		if p.expired(now) {
			p.lastResultSeen = true
			expired = append(expired, p)
			delete(s.paths, id)
		}
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		s.mu.Lock()
		c, name := s.stats, s.name
		s.mu.Unlock()
		if c != nil {
			for range expired {
				c.ObserveExpired(name)
			}
		}
	}

	for _, p := range expired {
		timeout := msg.NewCmdResult(p.OriginalCmdType, p.OriginalCmdName, p.CmdID, StatusFor(cmn.Timeout), true)
		p.onResult(timeout)
	}
	return sweepInterval
}

// StatusFor maps a cmn.ErrCode onto the message model's `status_code`
// field: the wire values are otherwise unspecified beyond "non-ok status
// code"; this module fixes a 1:1 mapping so every
// synthesised error result across this codebase uses the same scale: 0 is
// reserved for ok, every ErrCode gets a distinct negative slot).
func StatusFor(code cmn.ErrCode) int { return -1 - int(code) }

// SetStats wires name and a telemetry Collector into the store: name labels
// every gauge/counter this store contributes, c receives outstanding-count
// samples and expired-path counts. Optional; a Store with no Collector
// simply skips these observations.
func (s *Store) SetStats(name string, c *stats.Collector) {
	s.mu.Lock()
	s.name = name
	s.stats = c
	s.mu.Unlock()
}

// SampleStats publishes the current outstanding-path gauge. Callers (e.g.
// a cmn.Config.TelemetrySampleInterval-ticking hk job owned by the engine)
// invoke this periodically rather than on every Add/Resolve.
func (s *Store) SampleStats() {
	s.mu.Lock()
	c, name, n := s.stats, s.name, len(s.paths)
	s.mu.Unlock()
	if c != nil {
		c.SetPathsOutstanding(name, n)
	}
}

// Close unregisters the store's sweep. Outstanding paths are left
// unresolved; callers that need a drain-with-synthetic-results close
// should call Resolve/iterate themselves before Close.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// FailAllTo synthesises a final CmdResult with the given error code for
// every outstanding Out-kind path whose downstream hop (OutLoc) points at
// appURI, then removes them: a transport or remote error yields a
// CmdResult for every outstanding command through that remote. Used when
// a remote drops (engine.onRemoteClosed); the close cascade uses FailAll
// instead.
func (s *Store) FailAllTo(appURI string, code cmn.ErrCode) {
	s.mu.Lock()
	var matched []*Path
	for id, p := range s.paths {
		if p.Kind == KindOut && p.OutLoc.AppURI == appURI {
			p.lastResultSeen = true
			matched = append(matched, p)
			delete(s.paths, id)
		}
	}
	s.mu.Unlock()

	for _, p := range matched {
		result := msg.NewCmdResult(p.OriginalCmdType, p.OriginalCmdName, p.CmdID, StatusFor(code), true)
		p.onResult(result)
	}
}

// FailAll synthesises a final CmdResult with the given error code for
// every outstanding path, regardless of destination: the close cascade's
// synthesised results apply to all pending work, not just
// remote-addressed work.
func (s *Store) FailAll(code cmn.ErrCode) {
	s.mu.Lock()
	all := make([]*Path, 0, len(s.paths))
	for id, p := range s.paths {
		p.lastResultSeen = true
		all = append(all, p)
		delete(s.paths, id)
	}
	s.mu.Unlock()

	for _, p := range all {
		result := msg.NewCmdResult(p.OriginalCmdType, p.OriginalCmdName, p.CmdID, StatusFor(code), true)
		p.onResult(result)
	}
}
