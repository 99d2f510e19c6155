// Package server is the client-facing façade: one gRPC server carrying the
// messaging API and the peer consensus RPCs, plus an HTTP sidecar for
// health, readiness and Prometheus metrics.
//
// Mutations are leader-only. A follower answers with FailedPrecondition and
// the detail "Not the leader. Try <host:port>" so clients can re-aim; with
// no known leader the request is Unavailable. On the leader a mutation
// validates the session, checks preconditions against local state, assigns
// ids, tokens and timestamps, proposes the command and blocks until it is
// applied or the commit wait expires. Reads are served from local state on
// any node and may trail the leader by a replication round.
package server
