package core

// DebugWriter receives one line of debug output
type DebugWriter func(string)

// TraceEvent captures a timing-relevant event for post-mortem analysis
type TraceEvent struct {
	Kind   uint8  // Trace kind code
	ID     uint8  // Pin or object the event belongs to
	Clock  uint32 // Low 32 bits of the clock at the event (µs)
	Value1 int32  // Kind-dependent value
	Value2 int32  // Kind-dependent value
}

// Trace kind codes
const (
	TraceMarkPending     = 1 // Idle worker marked pending
	TracePoll            = 2 // Poll ran work (v1 = pending workers, v2 = timers)
	TraceResume          = 3 // Task resumed (v1 = latency µs)
	TraceDebounceReject  = 4 // Button edge discarded inside the window (v1 = age µs)
	TraceInvalidStep     = 5 // Quadrature transition not in the table (v1 = index)
	TraceDetent          = 6 // Encoder reached a detent (v1 = counter)
	TraceSpuriousIRQ     = 7 // Edge interrupt with no configured bits (v1 = events)
	TraceFrequencyChange = 8 // Output frequency applied (v1 = milli-Hz)
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	debugPrintln DebugWriter = func(s string) {}

	debugEnabled bool

	// Trace ring buffer. Written from edge handlers, so guarded.
	traceLock    CriticalSection
	traceRing    [TraceRingSize]TraceEvent
	traceHead    uint8
	traceEnabled bool = true

	// Lines waiting for debugOutputWorker
	debugChan chan string
)

// SetDebugWriter routes debug lines to a target sink
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetTraceEnabled turns trace capture on or off
func SetTraceEnabled(enabled bool) {
	traceLock.Lock()
	traceEnabled = enabled
	traceLock.Unlock()
}

// InitAsyncDebug starts draining DebugAsync lines to the writer. Call it
// once, after SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes msg synchronously when debug output is on
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues msg without blocking. Lines are dropped while the queue
// is full.
func DebugAsync(msg string) {
	if debugEnabled && debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTrace captures an event in the ring buffer. Safe from interrupt
// context.
func RecordTrace(kind, id uint8, clock Time, value1, value2 int32) {
	traceLock.Lock()
	defer traceLock.Unlock()
	if !traceEnabled {
		return
	}
	idx := traceHead
	traceRing[idx] = TraceEvent{
		Kind:   kind,
		ID:     id,
		Clock:  uint32(clock),
		Value1: value1,
		Value2: value2,
	}
	traceHead = (idx + 1) % TraceRingSize
}

// TraceSnapshot returns the recorded events, oldest first
func TraceSnapshot() []TraceEvent {
	traceLock.Lock()
	defer traceLock.Unlock()

	out := make([]TraceEvent, 0, TraceRingSize)
	start := traceHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// traceName returns the label printed for a trace kind
func traceName(kind uint8) string {
	switch kind {
	case TraceMarkPending:
		return "MARK"
	case TracePoll:
		return "POLL"
	case TraceResume:
		return "RESUME"
	case TraceDebounceReject:
		return "BOUNCE"
	case TraceInvalidStep:
		return "INVALID_STEP!"
	case TraceDetent:
		return "DETENT"
	case TraceSpuriousIRQ:
		return "SPURIOUS_IRQ"
	case TraceFrequencyChange:
		return "FREQ"
	default:
		return "UNKNOWN"
	}
}

// DumpTrace outputs the trace ring (call on shutdown/error)
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceSnapshot() {
		debugPrintln("[TRACE] " + traceName(evt.Kind) +
			" id=" + itoa(int(evt.ID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	traceLock.Lock()
	defer traceLock.Unlock()
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceHead = 0
}
