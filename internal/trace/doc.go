// Package trace provides structured event logging for cosched schedulers.
//
// A scheduler reports its lifecycle, task state changes and every
// activation as trace events. Tracing is how the scheduler logs; there is
// no separate logger.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	cosched run --trace=- --trace-level=task
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: bounded in-memory buffer, dumped on demand
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only failures
//   - LevelLifecycle: scheduler init/start/deinit
//   - LevelTask: task creation and state changes
//   - LevelDebug: everything including activations and tick updates
//
// # Scopes
//
//   - ScopeScheduler: scheduler lifecycle
//   - ScopeTask: per-task state transitions
//   - ScopeActivation: one span per task activation
//   - ScopeTick: timeout bookkeeping
//
// # Sources
//
// Each scheduler owns a Source, which stamps its events with an instance ID
// so several schedulers can share one sink:
//
//	src := trace.NewSource(trace.FromContext(ctx))
//	span := src.Begin(trace.ScopeActivation, "task:3")
//	defer span.End("yield")
package trace
