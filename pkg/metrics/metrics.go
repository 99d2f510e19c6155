package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftTerm = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_term",
			Help: "Current Raft term",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_peers_total",
			Help: "Total number of nodes in the cluster topology",
		},
	)

	RaftLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_log_index",
			Help: "Index of the last entry in the Raft log",
		},
	)

	RaftCommitIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_commit_index",
			Help: "Highest log index known to be committed",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_raft_applied_index",
			Help: "Last Raft log index applied to the state machine",
		},
	)

	// Messaging state metrics
	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_users_total",
			Help: "Total number of registered accounts",
		},
	)

	MessagesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_messages_total",
			Help: "Total number of stored messages",
		},
	)

	SessionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_sessions_total",
			Help: "Total number of sessions, expired ones included",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Replication metrics
	ProposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_proposals_total",
			Help: "Total number of log proposals by outcome",
		},
		[]string{"outcome"},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_events_total",
			Help: "Total number of broker events by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftTerm)
	prometheus.MustRegister(RaftPeers)
	prometheus.MustRegister(RaftLogIndex)
	prometheus.MustRegister(RaftCommitIndex)
	prometheus.MustRegister(RaftAppliedIndex)
	prometheus.MustRegister(UsersTotal)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ProposalsTotal)
	prometheus.MustRegister(EventsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
