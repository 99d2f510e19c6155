package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/parleychat/parley/api/proto"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every cluster node for its role",
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := loadTopology(cmd)
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		fmt.Printf("%-10s %-24s %s\n", "NODE", "ENDPOINT", "ROLE")
		for _, id := range topo.NodeIDs() {
			addr, _ := topo.Addr(id)
			fmt.Printf("%-10s %-24s %s\n", id, addr, probeRole(addr, timeout))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Duration("timeout", 2*time.Second, "per-node probe timeout")
}

// probeRole classifies a node by how it answers LeaderPing.
func probeRole(addr string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	defer conn.Close()

	_, err = proto.NewMessagingServiceClient(conn).LeaderPing(ctx, &proto.LeaderPingRequest{})
	if err == nil {
		return "leader"
	}
	st, ok := status.FromError(err)
	if ok && st.Code() == codes.FailedPrecondition {
		hint := strings.TrimPrefix(st.Message(), "Not the leader. Try ")
		if hint = strings.TrimSpace(hint); hint != "" {
			return fmt.Sprintf("follower (leader: %s)", hint)
		}
		return "follower (leader unknown)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
