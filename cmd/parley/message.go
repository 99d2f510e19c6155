package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Send and inspect messages",
}

func init() {
	messageCmd.PersistentFlags().StringP("username", "u", "", "account username")
	messageCmd.PersistentFlags().StringP("password", "p", "", "account password")
	_ = messageCmd.MarkPersistentFlagRequired("username")
	_ = messageCmd.MarkPersistentFlagRequired("password")

	messageCmd.AddCommand(messageSendCmd)
	messageCmd.AddCommand(messageHistoryCmd)
	messageCmd.AddCommand(messageUnreadCmd)
	messageCmd.AddCommand(messageReadCmd)
	messageCmd.AddCommand(messageMarkReadCmd)
	messageCmd.AddCommand(messageDeleteCmd)
	messageCmd.AddCommand(messageInfoCmd)
}

func parseUID(arg string) (uint32, error) {
	uid, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid message uid %q: %w", arg, err)
	}
	return uint32(uid), nil
}

var messageSendCmd = &cobra.Command{
	Use:   "send <recipient> <content>",
	Short: "Send a message to another account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		recipientID, found, err := c.GetUserByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no account named %s", args[0])
		}
		if err := c.SendMessage(ctx, recipientID, args[1]); err != nil {
			return err
		}
		fmt.Printf("Message sent to %s\n", args[0])
		return nil
	},
}

var messageHistoryCmd = &cobra.Command{
	Use:   "history <conversant>",
	Short: "Show the full conversation with another account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		conversantID, found, err := c.GetUserByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no account named %s", args[0])
		}
		msgs, err := c.DisplayConversation(ctx, conversantID)
		if err != nil {
			return err
		}

		me, _ := cmd.Flags().GetString("username")
		for _, m := range msgs {
			sender := args[0]
			if m.SenderFlag {
				sender = me
			}
			fmt.Printf("[%d] %s: %s\n", m.MessageID, sender, m.Content)
		}
		fmt.Printf("%d message(s)\n", len(msgs))
		return nil
	},
}

var messageUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "List unread messages without consuming them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		msgs, err := c.GetUnreadMessages(ctx)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			sender, err := c.GetUsernameByID(ctx, m.SenderID)
			if err != nil {
				sender = fmt.Sprintf("user %d", m.SenderID)
			}
			fmt.Printf("[%d] from %s\n", m.MessageUID, sender)
		}
		fmt.Printf("%d unread message(s)\n", len(msgs))
		return nil
	},
}

var messageReadCmd = &cobra.Command{
	Use:   "read [n]",
	Short: "Dequeue up to n unread messages (default 10)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		n := uint32(10)
		if len(args) == 1 {
			parsed, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
			n = uint32(parsed)
		}

		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.ReadMessages(ctx, n); err != nil {
			return err
		}
		fmt.Println("Messages marked read")
		return nil
	},
}

var messageMarkReadCmd = &cobra.Command{
	Use:   "mark-read <uid>",
	Short: "Mark a single message as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		uid, err := parseUID(args[0])
		if err != nil {
			return err
		}
		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.MarkMessageAsRead(ctx, uid); err != nil {
			return err
		}
		fmt.Printf("Message %d marked read\n", uid)
		return nil
	},
}

var messageDeleteCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete a message for both participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		uid, err := parseUID(args[0])
		if err != nil {
			return err
		}
		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.DeleteMessage(ctx, uid); err != nil {
			return err
		}
		fmt.Printf("Message %d deleted\n", uid)
		return nil
	},
}

var messageInfoCmd = &cobra.Command{
	Use:   "info <uid>",
	Short: "Show metadata for a message you sent or received",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliCtx()
		defer cancel()

		uid, err := parseUID(args[0])
		if err != nil {
			return err
		}
		c, err := loggedInClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		info, err := c.GetMessageInformation(ctx, uid)
		if err != nil {
			return err
		}
		sender, err := c.GetUsernameByID(ctx, info.SenderID)
		if err != nil {
			sender = fmt.Sprintf("user %d", info.SenderID)
		}
		fmt.Printf("Message %d\n", uid)
		fmt.Printf("  Sender:  %s\n", sender)
		fmt.Printf("  Read:    %t\n", info.ReadFlag)
		fmt.Printf("  Length:  %d\n", info.ContentLength)
		fmt.Printf("  Content: %s\n", info.MessageContent)
		return nil
	},
}
