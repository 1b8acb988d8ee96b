package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/apikeys"
	"github.com/spf13/cobra"
)

var apiKeysCmd = &cobra.Command{
	Use:   "apikeys",
	Short: "Manage stored provider credentials",
}

var apiKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials (redacted)",
	Args:  cobra.NoArgs,
	RunE:  run(listAPIKeys),
}

var (
	apiKeyFlags struct {
		label    string
		provider string
		usage    string
	}

	apiKeysCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Store a provider credential",
		Long: `Create stores a provider credential. The raw key is read from the terminal
with echo disabled, or from the first line of stdin when piped.`,
		Args: cobra.NoArgs,
		RunE: run(createAPIKey),
	}
)

func init() {
	apiKeysCmd.AddCommand(apiKeysListCmd, apiKeysCreateCmd)

	f := apiKeysCreateCmd.Flags()
	f.StringVar(&apiKeyFlags.label, "label", "", "Display label")
	f.StringVar(&apiKeyFlags.provider, "provider", "", "Provider id")
	f.StringVar(&apiKeyFlags.usage, "usage", string(apikeys.UsageBoth), "Usage (llm, embedding, both)")
}

func listAPIKeys(ctx context.Context, c *console, _ []string) error {
	keys, err := c.apiKeys.List(ctx)
	if err != nil {
		return err
	}

	return c.out.print(keys, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tLABEL\tPROVIDER\tUSAGE\tKEY\tCREATED")
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				k.ID, k.Label, k.Provider, apikeys.Usage(k.Usage).Describe(), k.RedactedKey, orDash(k.CreatedAt))
		}
	})
}

func createAPIKey(ctx context.Context, c *console, _ []string) error {
	raw, err := readSecret("API key")
	if err != nil {
		return err
	}

	key, err := c.apiKeys.Create(ctx, apikeys.CreateCommand{
		Label:    apiKeyFlags.label,
		Provider: apiKeyFlags.provider,
		Usage:    apikeys.Usage(apiKeyFlags.usage),
		RawKey:   raw,
	})
	if err != nil {
		return err
	}

	return c.out.print(key, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "stored %s\t%s\t%s\n", key.ID, key.Label, key.RedactedKey)
	})
}
