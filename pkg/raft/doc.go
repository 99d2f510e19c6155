// Package raft implements the consensus core: leader election, log
// replication with quorum commitment, commit-index advancement and the
// apply loop that drives the state machine.
//
// A node is driven by a 50 ms control loop that checks the election timer,
// sends heartbeats when leader and applies newly committed entries. All
// node state lives under one mutex shared by the loop, the inbound RPC
// handlers and the service layer; outbound peer RPCs run on their own
// goroutines so a slow peer never stalls the loop. Peer RPC failures are
// soft and retried on the next cycle.
//
// Persistence rules: current_term and voted_for are durable before any vote
// response or candidacy, log entries are durable before an AppendEntries
// success is acknowledged, and every applied entry's effects land in the
// same storage transaction as the last_applied advance.
package raft
