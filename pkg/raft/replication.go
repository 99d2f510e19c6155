package raft

import (
	"context"

	"github.com/parleychat/parley/api/proto"
	"github.com/parleychat/parley/pkg/types"
)

// appendBatch is one peer's AppendEntries payload, snapshotted under mu. The
// entries are copied so a later truncation of the node's log cannot mutate a
// request already in flight.
type appendBatch struct {
	peerID string
	req    *proto.AppendEntriesRequest
}

// buildAppendBatchesLocked prepares one request per peer from its nextIndex.
// An up-to-date peer gets an empty heartbeat carrying the current commit
// index.
func (n *Node) buildAppendBatchesLocked() []appendBatch {
	if n.role != Leader {
		return nil
	}
	batches := make([]appendBatch, 0, len(n.cfg.Addrs)-1)
	for _, peerID := range n.cfg.peers() {
		next := n.nextIndex[peerID]
		prevIdx := next - 1
		var prevTerm uint64
		if prevIdx >= 0 {
			prevTerm = n.entries[prevIdx].Term
		}

		var entries []*proto.LogEntry
		if next < int64(len(n.entries)) {
			entries = make([]*proto.LogEntry, 0, int64(len(n.entries))-next)
			for _, e := range n.entries[next:] {
				cmd := make([]byte, len(e.Command))
				copy(cmd, e.Command)
				entries = append(entries, &proto.LogEntry{Term: e.Term, Command: cmd})
			}
		}

		batches = append(batches, appendBatch{
			peerID: peerID,
			req: &proto.AppendEntriesRequest{
				Term:         n.currentTerm,
				LeaderID:     n.cfg.NodeID,
				PrevLogIndex: prevIdx,
				PrevLogTerm:  prevTerm,
				Entries:      entries,
				LeaderCommit: n.commitIndex,
			},
		})
	}
	return batches
}

// dispatchAppends sends every batch concurrently.
func (n *Node) dispatchAppends(batches []appendBatch) {
	for _, b := range batches {
		go n.appendTo(b)
	}
}

func (n *Node) appendTo(b appendBatch) {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.RPCTimeout)
	defer cancel()

	resp, err := n.transport.AppendEntries(ctx, b.peerID, b.req)
	if err != nil {
		n.logger.Debug().Err(err).Str("peer", b.peerID).Msg("append entries failed")
		return
	}
	n.handleAppendResponse(b.peerID, b.req, resp)
}

func (n *Node) handleAppendResponse(peerID string, req *proto.AppendEntriesRequest, resp *proto.AppendEntriesResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if resp.Term > n.currentTerm {
		n.stepDownLocked(resp.Term)
		return
	}
	// Stale response from an earlier term's leadership.
	if n.role != Leader || n.currentTerm != req.Term {
		return
	}

	if resp.Success {
		matched := req.PrevLogIndex + int64(len(req.Entries))
		// Responses can arrive out of order; indices only move forward.
		if matched > n.matchIndex[peerID] {
			n.matchIndex[peerID] = matched
		}
		if matched+1 > n.nextIndex[peerID] {
			n.nextIndex[peerID] = matched + 1
		}
		n.advanceCommitLocked()
		n.applyCommittedLocked()
		return
	}

	// Consistency check failed: back up and retry on the next heartbeat.
	if n.nextIndex[peerID] > 0 {
		n.nextIndex[peerID]--
	}
}

// advanceCommitLocked moves the commit index to the highest N replicated on
// a quorum, restricted to entries from the current term. Earlier-term
// entries commit transitively once such an N exists.
func (n *Node) advanceCommitLocked() {
	if n.role != Leader {
		return
	}
	for nIdx := int64(len(n.entries)) - 1; nIdx > n.commitIndex; nIdx-- {
		if n.entries[nIdx].Term != n.currentTerm {
			break
		}
		replicas := 1
		for _, m := range n.matchIndex {
			if m >= nIdx {
				replicas++
			}
		}
		if replicas >= n.cfg.quorum() {
			n.commitIndex = nIdx
			if err := n.store.SetCommitIndex(nIdx); err != nil {
				n.logger.Fatal().Err(err).Int64("commit_index", nIdx).Msg("failed to persist commit index")
			}
			return
		}
	}
}

// HandleAppendEntries serves the leader's replication and heartbeat traffic.
// New entries are durable before success is returned. The log is truncated
// only at the first entry whose term conflicts with the leader's; a purely
// duplicate prefix leaves the log untouched.
func (n *Node) HandleAppendEntries(req *proto.AppendEntriesRequest) *proto.AppendEntriesResponse {
	n.mu.Lock()

	if req.Term < n.currentTerm {
		term := n.currentTerm
		n.mu.Unlock()
		return &proto.AppendEntriesResponse{Term: term, Success: false}
	}

	// A current-term AppendEntries settles elections too: the sender is the
	// leader for this term.
	n.stepDownLocked(req.Term)
	n.leaderID = req.LeaderID
	n.resetElectionTimerLocked()

	// Consistency check: our log must contain the entry the new batch hangs
	// off of.
	if req.PrevLogIndex >= 0 {
		if req.PrevLogIndex >= int64(len(n.entries)) ||
			n.entries[req.PrevLogIndex].Term != req.PrevLogTerm {
			term := n.currentTerm
			n.mu.Unlock()
			return &proto.AppendEntriesResponse{Term: term, Success: false}
		}
	}

	// Walk the batch past entries we already hold; truncate at the first
	// term conflict.
	insert := req.PrevLogIndex + 1
	from := 0
	for ; from < len(req.Entries); from++ {
		idx := insert + int64(from)
		if idx >= int64(len(n.entries)) {
			break
		}
		if n.entries[idx].Term != req.Entries[from].Term {
			if err := n.store.TruncateLog(idx); err != nil {
				n.logger.Fatal().Err(err).Int64("index", idx).Msg("failed to truncate log")
			}
			n.entries = n.entries[:idx]
			break
		}
	}

	if from < len(req.Entries) {
		start := int64(len(n.entries))
		fresh := make([]types.LogEntry, 0, len(req.Entries)-from)
		for _, e := range req.Entries[from:] {
			fresh = append(fresh, types.LogEntry{Term: e.Term, Command: e.Command})
		}
		if err := n.store.AppendLog(start, fresh); err != nil {
			n.logger.Fatal().Err(err).Int64("index", start).Msg("failed to persist log entries")
		}
		n.entries = append(n.entries, fresh...)
	}

	// Commit only up to what this request vouches for, not our whole log.
	if req.LeaderCommit > n.commitIndex {
		last := req.PrevLogIndex + int64(len(req.Entries))
		commit := req.LeaderCommit
		if last < commit {
			commit = last
		}
		if commit > n.commitIndex {
			n.commitIndex = commit
			if err := n.store.SetCommitIndex(commit); err != nil {
				n.logger.Fatal().Err(err).Int64("commit_index", commit).Msg("failed to persist commit index")
			}
			n.applyCommittedLocked()
		}
	}

	term := n.currentTerm
	n.mu.Unlock()
	return &proto.AppendEntriesResponse{Term: term, Success: true}
}
