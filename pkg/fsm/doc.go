// Package fsm applies committed log entries to the application state. Every
// replica runs the same commands in the same order against the same state,
// so the apply functions must be deterministic: all ids, tokens and
// timestamps are assigned by the leader at propose time and travel inside
// the command payload.
package fsm
