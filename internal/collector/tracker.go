package collector

import (
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/connstats/internal/database"
)

// Trace roles, from the point of view of the owning process.
const (
	RoleClient = "client"
	RoleServer = "server"
)

type tracked struct {
	conn Conn
	upid string
	role string
}

// Tracker turns successive socket listings into conn_stats rows. A
// connection gets conn_open=1 in the first committed sample that contains
// it and a final row with conn_close=1 in the first one that no longer does.
type Tracker struct {
	prev map[uint64]tracked
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{prev: make(map[uint64]tracked)}
}

// Len is the number of connections currently tracked.
func (t *Tracker) Len() int {
	return len(t.prev)
}

// Sample is one socket listing diffed against the tracked state. It only
// becomes the baseline for the next diff once committed.
type Sample struct {
	Stats []*database.ConnStat
	next  map[uint64]tracked
}

// Diff compares conns with the committed state. upids maps pid to unique
// process id; pids missing from it get UnknownUPID. Listening and
// unconnected sockets are only used to decide the trace role. Diffing
// again without a Commit reports the same opens and closes.
func (t *Tracker) Diff(now time.Time, conns []Conn, upids map[int32]string) *Sample {
	listening := listeningPorts(conns)
	s := &Sample{next: make(map[uint64]tracked, len(conns))}

	for _, c := range conns {
		if !connected(c) {
			continue
		}
		key := connKey(c)
		if _, dup := s.next[key]; dup {
			continue
		}

		upid, ok := upids[c.PID]
		if !ok {
			upid = UnknownUPID
		}
		cur := tracked{conn: c, upid: upid, role: traceRole(c, listening)}
		s.next[key] = cur

		row := newStat(now, cur)
		row.ConnActive = 1
		if _, seen := t.prev[key]; !seen {
			row.ConnOpen = 1
		}
		s.Stats = append(s.Stats, row)
	}

	for key, old := range t.prev {
		if _, still := s.next[key]; still {
			continue
		}
		row := newStat(now, old)
		row.ConnClose = 1
		s.Stats = append(s.Stats, row)
	}

	return s
}

// Commit makes s the state later samples are diffed against.
func (t *Tracker) Commit(s *Sample) {
	t.prev = s.next
}

func newStat(now time.Time, c tracked) *database.ConnStat {
	return &database.ConnStat{
		Time:       now,
		UPID:       c.upid,
		RemoteAddr: c.conn.RemoteAddr,
		RemotePort: int64(c.conn.RemotePort),
		LocalAddr:  c.conn.LocalAddr,
		LocalPort:  int64(c.conn.LocalPort),
		Protocol:   c.conn.Protocol,
		TraceRole:  c.role,
	}
}

func connected(c Conn) bool {
	return c.Status != StatusListen && c.RemoteAddr != "" && c.RemotePort != 0
}

type portKey struct {
	protocol string
	port     uint32
}

func listeningPorts(conns []Conn) map[portKey]bool {
	ports := make(map[portKey]bool)
	for _, c := range conns {
		if c.Status == StatusListen {
			ports[portKey{c.Protocol, c.LocalPort}] = true
		}
	}
	return ports
}

// traceRole is server when the local end sits on a port the host listens on.
func traceRole(c Conn, listening map[portKey]bool) string {
	if listening[portKey{c.Protocol, c.LocalPort}] {
		return RoleServer
	}
	return RoleClient
}

// connKey identifies a connection across samples.
func connKey(c Conn) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(c.Protocol)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(c.LocalAddr)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatUint(uint64(c.LocalPort), 10))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(c.RemoteAddr)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatUint(uint64(c.RemotePort), 10))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.FormatInt(int64(c.PID), 10))
	return h.Sum64()
}
