/*
Package metrics provides Prometheus metrics collection and exposition for Parley.

The metrics package defines and registers all Parley metrics using the
Prometheus client library, covering consensus health, messaging state size and
API performance. Metrics are exposed via HTTP endpoint for scraping by
Prometheus servers, alongside the health and readiness probes.

# Metrics Catalog

Raft Metrics:

parley_raft_is_leader:
  - Type: Gauge
  - Description: Whether this node is the Raft leader (1=leader, 0=follower)

parley_raft_term:
  - Type: Gauge
  - Description: Current Raft term

parley_raft_peers_total:
  - Type: Gauge
  - Description: Total nodes in the cluster topology

parley_raft_log_index:
  - Type: Gauge
  - Description: Index of the last log entry (-1 when the log is empty)

parley_raft_commit_index:
  - Type: Gauge
  - Description: Highest log index known to be committed

parley_raft_applied_index:
  - Type: Gauge
  - Description: Last log index applied to the state machine

Messaging State Metrics:

parley_users_total:
  - Type: Gauge
  - Description: Total registered accounts

parley_messages_total:
  - Type: Gauge
  - Description: Total stored messages

parley_sessions_total:
  - Type: Gauge
  - Description: Total sessions, expired ones included

API Metrics:

parley_api_requests_total{method, status}:
  - Type: Counter
  - Description: Total API requests by method and gRPC status code

parley_api_request_duration_seconds{method}:
  - Type: Histogram
  - Description: API request duration in seconds

parley_proposals_total{outcome}:
  - Type: Counter
  - Description: Log proposals by outcome (committed, rejected, timeout)

parley_events_total{type}:
  - Type: Counter
  - Description: Broker events by type (account.created, message.sent, ...)

# Usage

Updating metrics:

	import "github.com/parleychat/parley/pkg/metrics"

	metrics.RaftLeader.Set(1)
	metrics.APIRequestsTotal.WithLabelValues("SendMessage", "OK").Inc()

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.APIRequestDuration, "SendMessage")

The Collector samples the consensus node and in-memory state every 15 seconds
and keeps the component health registry's raft entry current; the API
interceptor records counters and latency per RPC; the EventHook counts broker
events by type.

# Monitoring

Useful PromQL:

  - Has leader: max(parley_raft_is_leader) > 0
  - Leader changes: changes(parley_raft_is_leader[10m])
  - Apply lag: parley_raft_commit_index - parley_raft_applied_index
  - Error rate: rate(parley_api_requests_total{status!="OK"}[1m])
  - p95 latency: histogram_quantile(0.95, parley_api_request_duration_seconds_bucket)
*/
package metrics
