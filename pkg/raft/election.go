package raft

import (
	"context"
	"fmt"
	"time"

	"github.com/parleychat/parley/api/proto"
	"github.com/parleychat/parley/pkg/events"
)

// voteRound is the immutable snapshot handed to the fan-out goroutines; they
// never read node state directly.
type voteRound struct {
	term         uint64
	lastLogIndex int64
	lastLogTerm  uint64
	peers        []string
}

// startElectionLocked converts the node to candidate for a fresh term and
// votes for itself. The returned round is dispatched after mu is released; a
// single-node cluster wins on the spot and the round is empty.
func (n *Node) startElectionLocked() voteRound {
	n.role = Candidate
	n.currentTerm++
	n.votedFor = n.cfg.NodeID
	n.leaderID = ""
	n.persistTermAndVote()
	n.resetElectionTimerLocked()
	n.votes = map[string]bool{n.cfg.NodeID: true}

	n.logger.Info().Uint64("term", n.currentTerm).Msg("starting election")

	if len(n.votes) >= n.cfg.quorum() {
		n.becomeLeaderLocked()
		return voteRound{}
	}

	lastIdx, lastTerm := n.lastLogInfoLocked()
	return voteRound{
		term:         n.currentTerm,
		lastLogIndex: lastIdx,
		lastLogTerm:  lastTerm,
		peers:        n.cfg.peers(),
	}
}

// dispatchVotes fans the round out to every peer concurrently.
func (n *Node) dispatchVotes(round voteRound) {
	if len(round.peers) == 0 {
		return
	}
	req := &proto.RequestVoteRequest{
		Term:         round.term,
		CandidateID:  n.cfg.NodeID,
		LastLogIndex: round.lastLogIndex,
		LastLogTerm:  round.lastLogTerm,
	}
	for _, peerID := range round.peers {
		go n.requestVoteFrom(peerID, req)
	}
}

func (n *Node) requestVoteFrom(peerID string, req *proto.RequestVoteRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.RPCTimeout)
	defer cancel()

	resp, err := n.transport.RequestVote(ctx, peerID, req)
	if err != nil {
		n.logger.Debug().Err(err).Str("peer", peerID).Msg("vote request failed")
		return
	}
	n.handleVoteResponse(peerID, req.Term, resp)
}

func (n *Node) handleVoteResponse(peerID string, requestedTerm uint64, resp *proto.RequestVoteResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if resp.Term > n.currentTerm {
		n.stepDownLocked(resp.Term)
		return
	}
	// Stale response from an earlier candidacy.
	if n.role != Candidate || n.currentTerm != requestedTerm {
		return
	}
	if !resp.VoteGranted {
		return
	}

	n.votes[peerID] = true
	if len(n.votes) >= n.cfg.quorum() {
		n.becomeLeaderLocked()
	}
}

// becomeLeaderLocked initializes leader bookkeeping and schedules an
// immediate heartbeat to assert the new term.
func (n *Node) becomeLeaderLocked() {
	n.role = Leader
	n.leaderID = n.cfg.NodeID
	n.votes = nil
	n.nextIndex = make(map[string]int64, len(n.cfg.Addrs)-1)
	n.matchIndex = make(map[string]int64, len(n.cfg.Addrs)-1)
	for _, peerID := range n.cfg.peers() {
		n.nextIndex[peerID] = int64(len(n.entries))
		n.matchIndex[peerID] = -1
	}
	// Force a heartbeat on the next tick.
	n.lastHeartbeat = time.Time{}

	n.logger.Info().Uint64("term", n.currentTerm).Msg("became leader")
	n.publish(events.EventLeaderElected, "leader elected", map[string]string{
		"node_id": n.cfg.NodeID,
		"term":    fmt.Sprintf("%d", n.currentTerm),
	})
}

// HandleRequestVote serves a candidate's ballot. The vote is granted at most
// once per term, and only to candidates whose log is at least as up to date
// as ours; (term, vote) is durable before the response leaves.
func (n *Node) HandleRequestVote(req *proto.RequestVoteRequest) *proto.RequestVoteResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	if req.Term < n.currentTerm {
		return &proto.RequestVoteResponse{Term: n.currentTerm, VoteGranted: false}
	}
	if req.Term > n.currentTerm {
		n.stepDownLocked(req.Term)
	}

	lastIdx, lastTerm := n.lastLogInfoLocked()
	upToDate := req.LastLogTerm > lastTerm ||
		(req.LastLogTerm == lastTerm && req.LastLogIndex >= lastIdx)
	canVote := n.votedFor == "" || n.votedFor == req.CandidateID

	if !canVote || !upToDate {
		return &proto.RequestVoteResponse{Term: n.currentTerm, VoteGranted: false}
	}

	n.votedFor = req.CandidateID
	n.persistTermAndVote()
	n.resetElectionTimerLocked()

	n.logger.Debug().Str("candidate", req.CandidateID).Uint64("term", n.currentTerm).Msg("vote granted")
	return &proto.RequestVoteResponse{Term: n.currentTerm, VoteGranted: true}
}
