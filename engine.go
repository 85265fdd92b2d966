package hop

import "bytes"

// Config holds the engine's tunables. Both fields are currently reserved:
// pubsub_enabled has no wire-visible effect until a command set for
// subscriptions is defined, and sessions_active_max is not yet enforced by
// any command (see session.go, pubsub.go).
type Config struct {
	PubsubEnabled     bool
	SessionsActiveMax int // 0 means unbounded
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{PubsubEnabled: true, SessionsActiveMax: 0}
}

// Engine is the dispatch entry point: state, metrics, and reserved
// session/pubsub hooks bound together behind one handle. It holds no
// exclusive lock of its own — all synchronization lives in State — so an
// *Engine is safe to share across goroutines, matching the "freely
// clone-able, Send/Sync equivalent" contract in spec.md §5.
type Engine struct {
	state    *State
	metrics  *Metrics
	config   Config
	sessions *sessionManager
	pubsub   *pubsubManager
}

// NewEngine constructs an Engine. Pass nil for cfg to use DefaultConfig's
// values; a non-nil cfg — including an explicit &Config{} — is used exactly
// as supplied, so a caller who deliberately sets PubsubEnabled: false is not
// indistinguishable from one who simply didn't pass a config.
func NewEngine(cfg *Config) *Engine {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Engine{
		state:    NewState(),
		metrics:  newMetrics(),
		config:   c,
		sessions: newSessionManager(),
		pubsub:   newPubsubManager(),
	}
}

// Metrics returns the engine's counter set, for a Stats handler or an
// external metrics exporter.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// State returns the engine's key space directly, for callers (tests, the
// CLI's introspection commands) that need access beyond the dispatch
// surface.
func (e *Engine) State() *State { return e.state }

// Dispatch runs req against the engine and appends exactly one encoded
// Response to out. It always succeeds at the Go level — failures are
// reported as a DispatchError response frame, never a Go error. That
// includes an unrecognized command id (answered with argument retrieval),
// which can only reach here if a caller builds a Request by hand instead
// of through RequestDecoder.
func (e *Engine) Dispatch(req *Request, out *bytes.Buffer) {
	handler, ok := handlers[req.Command]
	if !ok {
		e.metrics.incr(MetricCommandsErrored)
		AppendResponse(out, DispatchErrorResponse(DispatchArgumentRetrieval))
		return
	}

	resp, err := handler(e, req)
	if err != nil {
		e.metrics.incr(MetricCommandsErrored)
		AppendResponse(out, responseErrorFor(err))
		return
	}

	e.metrics.incr(MetricCommandsSuccessful)
	AppendResponse(out, resp)
}
