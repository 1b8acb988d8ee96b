package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/JaimeStill/agent-console/internal/accesskeys"
	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage access keys that let chat clients call an agent",
}

var keysTestCmd = &cobra.Command{
	Use:   "test <agent-id>",
	Short: "Print a chat link using a reusable test access key",
	Args:  cobra.ExactArgs(1),
	RunE:  run(testKey),
}

var keysListCmd = &cobra.Command{
	Use:   "list <agent-id>",
	Short: "List an agent's access keys",
	Args:  cobra.ExactArgs(1),
	RunE:  run(listKeys),
}

var (
	newKeyFlags struct {
		name    string
		expires string
	}

	keysCreateCmd = &cobra.Command{
		Use:   "create <agent-id>",
		Short: "Create a named access key",
		Args:  cobra.ExactArgs(1),
		RunE:  run(createKey),
	}
)

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <agent-id> <access-key-id>",
	Short: "Revoke an access key",
	Args:  cobra.ExactArgs(2),
	RunE:  run(revokeKey),
}

func init() {
	keysCmd.AddCommand(keysTestCmd, keysListCmd, keysCreateCmd, keysRevokeCmd)

	keysCreateCmd.Flags().StringVar(&newKeyFlags.name, "name", "", "Access key name")
	keysCreateCmd.Flags().StringVar(&newKeyFlags.expires, "expires", "", "Expiry date (YYYY-MM-DD)")
	keysCreateCmd.MarkFlagRequired("name")
	keysCreateCmd.MarkFlagRequired("expires")
}

// remoteAgent resolves id to a saved agent; access keys are addressed by remote id.
func remoteAgent(c *console, id string) (agents.Agent, error) {
	a, err := lookupAgent(c, id)
	if err != nil {
		return agents.Agent{}, err
	}
	if !a.Saved() {
		return agents.Agent{}, agents.ErrNotSaved
	}
	return a, nil
}

func testKey(ctx context.Context, c *console, args []string) error {
	a, err := remoteAgent(c, args[0])
	if err != nil {
		return err
	}

	key, err := c.accessKeys.TestKey(ctx, a.RemoteID)
	if err != nil {
		return err
	}

	link := accesskeys.ChatURL(c.cfg.Chat.BaseURL, a.RemoteID, deref(key.Key))
	result := struct {
		Name   string `json:"name"`
		Expiry string `json:"expiry_date"`
		URL    string `json:"url"`
	}{key.Name, deref(key.ExpiryDate), link}

	return c.out.print(result, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, link)
	})
}

func listKeys(ctx context.Context, c *console, args []string) error {
	a, err := remoteAgent(c, args[0])
	if err != nil {
		return err
	}

	keys, err := c.accessKeys.List(ctx, a.RemoteID)
	if err != nil {
		return err
	}
	return printKeys(c, keys)
}

func createKey(ctx context.Context, c *console, args []string) error {
	a, err := remoteAgent(c, args[0])
	if err != nil {
		return err
	}

	expiry, err := time.ParseInLocation(time.DateOnly, newKeyFlags.expires, time.Local)
	if err != nil {
		return fmt.Errorf("invalid expiry date: %w", err)
	}

	key, err := c.accessKeys.Create(ctx, a.RemoteID, newKeyFlags.name, expiry)
	if err != nil {
		return err
	}
	return c.out.print(key, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key.ID, key.Name, deref(key.Key))
	})
}

func revokeKey(ctx context.Context, c *console, args []string) error {
	a, err := remoteAgent(c, args[0])
	if err != nil {
		return err
	}

	if err := c.accessKeys.Revoke(ctx, a.RemoteID, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "access key %s revoked\n", args[1])
	return nil
}

// printKeys lists keys without their secrets.
func printKeys(c *console, keys []backend.AccessKey) error {
	redacted := make([]backend.AccessKey, len(keys))
	for i, k := range keys {
		k.Key = nil
		redacted[i] = k
	}

	return c.out.print(redacted, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tEXPIRES\tCREATED\tLAST USE")
		for _, k := range redacted {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				k.ID, k.Name, orDash(deref(k.ExpiryDate)), orDash(deref(k.Created)), orDash(deref(k.LastUse)))
		}
	})
}
