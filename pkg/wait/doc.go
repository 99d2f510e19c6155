// Package wait couples mutating client requests to the apply loop: the
// proposer registers the log index of its entry and blocks, the applier
// triggers the index once the entry's effects are durable.
package wait
