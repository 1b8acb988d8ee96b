package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/apikeys"
	"github.com/JaimeStill/agent-console/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	providerUsage string

	providersCmd = &cobra.Command{
		Use:   "providers",
		Short: "List model providers",
		Args:  cobra.NoArgs,
		RunE:  run(listProviders),
	}
)

var (
	modelFlags struct {
		provider string
		keyID    string
		allowed  []string
	}

	providersModelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List a provider's chat models",
		Args:  cobra.NoArgs,
		RunE:  run(listModels),
	}

	providersEmbeddingsCmd = &cobra.Command{
		Use:   "embeddings",
		Short: "List a provider's embedding models",
		Args:  cobra.NoArgs,
		RunE:  run(listEmbeddingModels),
	}
)

func init() {
	providersCmd.AddCommand(providersModelsCmd, providersEmbeddingsCmd)
	providersCmd.Flags().StringVar(&providerUsage, "usage", "", "Only providers a key with this usage can serve (llm, embedding, both)")

	for _, cmd := range []*cobra.Command{providersModelsCmd, providersEmbeddingsCmd} {
		cmd.Flags().StringVar(&modelFlags.provider, "provider", "", "Provider id")
		cmd.Flags().StringVar(&modelFlags.keyID, "key-id", "", "Stored API key to query with (prompted when empty)")
		cmd.MarkFlagRequired("provider")
	}
	providersEmbeddingsCmd.Flags().StringSliceVar(&modelFlags.allowed, "allow", nil, "Keep only models from these providers")
}

func listProviders(ctx context.Context, c *console, _ []string) error {
	if providerUsage != "" && !apikeys.Usage(providerUsage).Valid() {
		return apikeys.ErrInvalidUsage
	}

	all, err := c.catalog.Providers(ctx)
	if err != nil {
		return err
	}

	list := catalog.ProvidersFor(all, apikeys.Usage(providerUsage))
	return c.out.print(list, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tLABEL")
		for _, p := range list {
			fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Label)
		}
	})
}

func listModels(ctx context.Context, c *console, _ []string) error {
	key, err := modelKey(ctx, c)
	if err != nil {
		return err
	}

	models, err := c.catalog.Models(ctx, modelFlags.provider, key)
	if err != nil {
		return err
	}
	return printModels(c, models)
}

func listEmbeddingModels(ctx context.Context, c *console, _ []string) error {
	key, err := modelKey(ctx, c)
	if err != nil {
		return err
	}

	models, err := c.catalog.EmbeddingModels(ctx, modelFlags.provider, key)
	if err != nil {
		return err
	}
	return printModels(c, catalog.FilterEmbeddingModels(models, modelFlags.allowed))
}

func modelKey(ctx context.Context, c *console) (string, error) {
	if modelFlags.keyID != "" {
		return c.apiKeys.Secret(ctx, modelFlags.keyID)
	}
	return readSecret("API key")
}

func printModels(c *console, models []string) error {
	return c.out.print(models, func(tw *tabwriter.Writer) {
		for _, m := range models {
			fmt.Fprintln(tw, catalog.Label(m))
		}
	})
}
