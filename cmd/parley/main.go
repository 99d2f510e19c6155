package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/pkg/cluster"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley - replicated messaging service",
	Long: `Parley is a fault-tolerant messaging service. A fixed cluster of
nodes replicates every account and message through Raft consensus, so the
service keeps accepting writes as long as a majority of nodes is up.

Every node loads the same cluster topology file, a JSON object mapping
node ids to endpoints.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Parley version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("cluster", "c", "cluster.json",
		"path to the cluster topology JSON file")

	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(messageCmd)
}

func loadTopology(cmd *cobra.Command) (*cluster.Config, error) {
	path, _ := cmd.Flags().GetString("cluster")
	return cluster.Load(path)
}
