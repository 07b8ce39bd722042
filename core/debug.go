package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceKind classifies a trace entry
type TraceKind uint8

const (
	TraceTransition TraceKind = iota + 1 // state change, From -> To
	TraceEvent                           // event consumed by the polling loop
	TraceTx                              // frame handed to the transceiver, Value = length
	TraceRx                              // frame delivered upstream, Value = length
	TraceDrop                            // frame dropped, Value = length
	TraceError                           // transceiver call failed
)

func (k TraceKind) String() string {
	switch k {
	case TraceTransition:
		return "STATE"
	case TraceEvent:
		return "EVENT"
	case TraceTx:
		return "TX"
	case TraceRx:
		return "RX"
	case TraceDrop:
		return "DROP"
	case TraceError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TraceEntry captures one step of the link for post-mortem analysis
type TraceEntry struct {
	Seq   uint32
	Kind  TraceKind
	From  LinkState
	To    LinkState
	Event EventFlag
	Value uint32
}

const (
	TraceRingSize = 32 // Keep last 32 entries
)

// traceRing is a fixed-size ring of the most recent trace entries. Writes
// come from the polling loop; reads may come from a shell goroutine.
type traceRing struct {
	mu      sync.Mutex
	entries [TraceRingSize]TraceEntry
	head    uint8
	seq     uint32
}

func (t *traceRing) record(e TraceEntry) {
	t.mu.Lock()
	t.seq++
	e.Seq = t.seq
	t.entries[t.head] = e
	t.head = (t.head + 1) % TraceRingSize
	t.mu.Unlock()
}

// snapshot returns the recorded entries, oldest first
func (t *traceRing) snapshot() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, 0, TraceRingSize)
	for i := uint8(0); i < TraceRingSize; i++ {
		e := t.entries[(t.head+i)%TraceRingSize]
		if e.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, e)
	}
	return out
}

func (t *traceRing) clear() {
	t.mu.Lock()
	t.entries = [TraceRingSize]TraceEntry{}
	t.head = 0
	t.mu.Unlock()
}

// FormatTrace renders one entry without using fmt
func FormatTrace(e TraceEntry) string {
	s := "[TRACE] #" + utoa(e.Seq) + " " + e.Kind.String()
	switch e.Kind {
	case TraceTransition:
		s += " " + e.From.String() + " -> " + e.To.String()
	case TraceEvent:
		s += " " + e.Event.String() + " in " + e.From.String()
	case TraceError:
		s += " in " + e.From.String() + " code=" + utoa(e.Value)
	default:
		s += " len=" + utoa(e.Value)
	}
	return s
}

// SetDebugWriter sets the output for debug messages. nil disables output.
func (r *Radio) SetDebugWriter(w DebugWriter) {
	r.debugMu.Lock()
	r.debugPrintln = w
	r.debugMu.Unlock()
}

func (r *Radio) debug(msg string) {
	r.debugMu.Lock()
	w := r.debugPrintln
	r.debugMu.Unlock()
	if w != nil {
		w(msg)
	}
}

// Trace returns the recent trace entries, oldest first
func (r *Radio) Trace() []TraceEntry {
	return r.trace.snapshot()
}

// DumpTrace writes the trace ring to the debug writer
func (r *Radio) DumpTrace() {
	r.debug("[TRACE] === Trace Dump ===")
	for _, e := range r.trace.snapshot() {
		r.debug(FormatTrace(e))
	}
	r.debug("[TRACE] === End Dump ===")
}

// ClearTrace empties the trace ring
func (r *Radio) ClearTrace() {
	r.trace.clear()
}
