package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/pkg/client"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

func init() {
	accountCmd.PersistentFlags().StringP("username", "u", "", "account username")
	accountCmd.PersistentFlags().StringP("password", "p", "", "account password")
	_ = accountCmd.MarkPersistentFlagRequired("username")
	_ = accountCmd.MarkPersistentFlagRequired("password")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountDeleteCmd)
}

// cliCtx bounds a whole CLI operation, discovery and retries included.
func cliCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func dialCluster(cmd *cobra.Command) (*client.Client, error) {
	topo, err := loadTopology(cmd)
	if err != nil {
		return nil, err
	}
	var endpoints []string
	for _, id := range topo.NodeIDs() {
		addr, _ := topo.Addr(id)
		endpoints = append(endpoints, addr)
	}
	return client.New(endpoints), nil
}

func credentials(cmd *cobra.Command) (string, []byte) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	hash := sha256.Sum256([]byte(password))
	return username, hash[:]
}

// loggedInClient dials the cluster and establishes a session.
func loggedInClient(ctx context.Context, cmd *cobra.Command) (*client.Client, error) {
	c, err := dialCluster(cmd)
	if err != nil {
		return nil, err
	}
	username, hash := credentials(cmd)
	if _, err := c.Login(ctx, username, hash); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := dialCluster(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		username, hash := credentials(cmd)
		if err := c.CreateAccount(ctx, username, hash); err != nil {
			return err
		}
		fmt.Printf("Account %s created (id %d)\n", username, c.Session().UserID)
		return nil
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials and show the unread count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := dialCluster(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		username, hash := credentials(cmd)
		unread, err := c.Login(ctx, username, hash)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (id %d), %d unread message(s)\n",
			username, c.Session().UserID, unread)
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list [wildcard]",
	Short: "List accounts matching a wildcard pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		wildcard := "*"
		if len(args) == 1 {
			wildcard = args[0]
		}
		names, err := c.ListAccounts(ctx, wildcard)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Printf("%d account(s)\n", len(names))
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.DeleteAccount(ctx); err != nil {
			return err
		}
		fmt.Println("Account deleted")
		return nil
	},
}
