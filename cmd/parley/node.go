package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/pkg/events"
	"github.com/parleychat/parley/pkg/fsm"
	"github.com/parleychat/parley/pkg/log"
	"github.com/parleychat/parley/pkg/metrics"
	"github.com/parleychat/parley/pkg/raft"
	"github.com/parleychat/parley/pkg/server"
	"github.com/parleychat/parley/pkg/state"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/transport"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a cluster node",
	Long: `Run one node of the messaging cluster. The node recovers its durable
state from the data directory, joins the cluster described by the topology
file and serves the messaging API on its configured endpoint.`,
	RunE: runNode,
}

func init() {
	nodeCmd.Flags().String("id", "", "node id (must appear in the topology file)")
	nodeCmd.Flags().String("data-dir", "/var/lib/parley", "directory for durable state")
	nodeCmd.Flags().String("listen", "", "listen address (defaults to this node's topology endpoint)")
	nodeCmd.Flags().String("metrics-addr", ":9090", "address for /metrics, /health and /ready")
	nodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	nodeCmd.Flags().String("log-format", "console", "log format (console, json)")
	nodeCmd.Flags().String("options", "", "optional YAML file with timing overrides")
	_ = nodeCmd.MarkFlagRequired("id")
}

func runNode(cmd *cobra.Command, args []string) error {
	nodeID, _ := cmd.Flags().GetString("id")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	listen, _ := cmd.Flags().GetString("listen")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	optionsPath, _ := cmd.Flags().GetString("options")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logFormat == "json",
	})
	logger := log.WithNodeID(nodeID)

	topo, err := loadTopology(cmd)
	if err != nil {
		return err
	}
	selfAddr, ok := topo.Addr(nodeID)
	if !ok {
		return fmt.Errorf("node id %q not found in cluster config", nodeID)
	}
	if listen == "" {
		listen = selfAddr
	}

	opts, err := loadOptions(optionsPath)
	if err != nil {
		return err
	}

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open durable store: %w", err)
	}
	defer store.Close()

	snap, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to recover durable state: %w", err)
	}
	st := state.NewFromSnapshot(snap, time.Now().Unix())
	logger.Info().
		Int("users", st.UserCount()).
		Int("messages", st.MessageCount()).
		Int("log_entries", len(snap.Log)).
		Msg("recovered durable state")

	metrics.SetVersion(Version)
	metrics.SetComponentHealth("storage", true, "store open")

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	hook := metrics.NewEventHook(broker)
	hook.Start()
	defer hook.Stop()

	applier := fsm.New(st, store, broker)
	tr := transport.NewGRPC(topo.Nodes)
	defer tr.Close()

	raftCfg := raft.Config{
		NodeID:             nodeID,
		Addrs:              topo.Nodes,
		ElectionTimeoutMin: time.Duration(opts.ElectionTimeoutMin),
		ElectionTimeoutMax: time.Duration(opts.ElectionTimeoutMax),
		HeartbeatInterval:  time.Duration(opts.HeartbeatInterval),
		RPCTimeout:         time.Duration(opts.RPCTimeout),
	}
	node, err := raft.NewNode(raftCfg, store, tr, applier, broker, snap)
	if err != nil {
		return fmt.Errorf("failed to build consensus node: %w", err)
	}

	srv := server.NewServer(st, node)
	if opts.CommitWait > 0 {
		srv.SetCommitWait(time.Duration(opts.CommitWait))
	}

	health := server.NewHealthServer(node, st, Version)
	go func() {
		if err := health.Start(metricsAddr); err != nil {
			logger.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
	defer health.Stop()

	collector := metrics.NewCollector(node, st)
	collector.Start()
	defer collector.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(listen); err != nil {
			metrics.SetComponentHealth("api", false, err.Error())
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	metrics.SetComponentHealth("api", true, "serving")
	node.Start()
	defer node.Stop()
	defer srv.Stop()

	logger.Info().
		Str("listen", listen).
		Str("metrics", metricsAddr).
		Int("cluster_size", topo.Size()).
		Msg("node started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
