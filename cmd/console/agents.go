package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/store"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List, create, edit, save, and delete agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Args:  cobra.NoArgs,
	RunE:  run(listAgents),
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <agent-id>",
	Short: "Show an agent with its roles and documents",
	Args:  cobra.ExactArgs(1),
	RunE:  run(showAgent),
}

var (
	createFlags struct {
		name           string
		description    string
		provider       string
		model          string
		embeddingModel string
		keys           keyFlags
	}

	agentsCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create and save a new agent",
		Args:  cobra.NoArgs,
		RunE:  run(createAgent),
	}
)

var (
	setFlags struct {
		name           string
		description    string
		prompt         string
		temperature    float64
		maxTokens      int
		status         string
		format         string
		embeddingModel string
		memory         bool
		webSearch      bool
		topK           int
		similarity     float64
		alpha          float64
		keys           keyFlags
	}

	agentsSetCmd = &cobra.Command{
		Use:   "set <agent-id>",
		Short: "Edit agent settings and save them",
		Args:  cobra.ExactArgs(1),
	}
)

var (
	saveKeys keyFlags

	agentsSaveCmd = &cobra.Command{
		Use:   "save <agent-id>",
		Short: "Save an agent to the backend",
		Args:  cobra.ExactArgs(1),
		RunE:  run(saveAgent),
	}
)

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  run(deleteAgent),
}

func init() {
	agentsCmd.AddCommand(agentsListCmd, agentsShowCmd, agentsCreateCmd, agentsSetCmd, agentsSaveCmd, agentsDeleteCmd)

	f := agentsCreateCmd.Flags()
	f.StringVar(&createFlags.name, "name", "", "Agent name")
	f.StringVar(&createFlags.description, "description", "", "Agent description")
	f.StringVar(&createFlags.provider, "provider", "", "Chat model provider")
	f.StringVar(&createFlags.model, "model", "", "Chat model name")
	f.StringVar(&createFlags.embeddingModel, "embedding-model", "", "Embedding model (provider:model)")
	agentsCreateCmd.MarkFlagRequired("name")
	createFlags.keys.register(agentsCreateCmd)

	agentsSetCmd.RunE = run(setAgent)
	f = agentsSetCmd.Flags()
	f.StringVar(&setFlags.name, "name", "", "Agent name")
	f.StringVar(&setFlags.description, "description", "", "Agent description")
	f.StringVar(&setFlags.prompt, "prompt", "", "System prompt")
	f.Float64Var(&setFlags.temperature, "temperature", 0, "Sampling temperature (clamped to the provider maximum)")
	f.IntVar(&setFlags.maxTokens, "max-tokens", 0, "Maximum response tokens")
	f.StringVar(&setFlags.status, "status", "", "Agent status (active, inactive)")
	f.StringVar(&setFlags.format, "format", "", "Response format (text, structured)")
	f.StringVar(&setFlags.embeddingModel, "embedding-model", "", "Embedding model (provider:model)")
	f.BoolVar(&setFlags.memory, "memory", false, "Enable conversation memory")
	f.BoolVar(&setFlags.webSearch, "web-search", false, "Enable web search")
	f.IntVar(&setFlags.topK, "top-k", 0, "Retrieved chunks per query")
	f.Float64Var(&setFlags.similarity, "similarity", 0, "Similarity threshold")
	f.Float64Var(&setFlags.alpha, "alpha", 0, "Hybrid search alpha")
	setFlags.keys.register(agentsSetCmd)

	saveKeys.register(agentsSaveCmd)
}

func listAgents(ctx context.Context, c *console, _ []string) error {
	list := c.store.Agents()
	return c.out.print(list, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tMODEL\tSTATUS\tROLES\tUPDATED")
		for _, a := range list {
			model := "-"
			if a.Model != nil {
				model = a.Model.Provider + "/" + a.Model.Name
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				orDash(a.RemoteID), a.Name, model, a.Status, len(a.Roles), a.LastUpdated)
		}
	})
}

func showAgent(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	docs, err := c.store.LoadDocuments(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Documents = agents.Loaded(docs)

	return c.out.print(a, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%s\n", orDash(a.RemoteID))
		fmt.Fprintf(tw, "Name:\t%s\n", a.Name)
		fmt.Fprintf(tw, "Description:\t%s\n", orDash(a.Description))
		fmt.Fprintf(tw, "Status:\t%s\n", a.Status)
		if a.Model != nil {
			fmt.Fprintf(tw, "Model:\t%s/%s\n", a.Model.Provider, a.Model.Name)
		}
		fmt.Fprintf(tw, "Embedding model:\t%s\n", orDash(a.EmbeddingModel))
		fmt.Fprintf(tw, "Temperature:\t%s\n", strconv.FormatFloat(a.Temperature, 'f', -1, 64))
		fmt.Fprintf(tw, "Max tokens:\t%d\n", a.MaxTokens)
		fmt.Fprintf(tw, "Last updated:\t%s\n", a.LastUpdated)
		fmt.Fprintf(tw, "Documents:\t%d\n", len(docs))
		for _, r := range a.Roles {
			fmt.Fprintf(tw, "Role %s:\t%s (%d documents)\n", r.ID, r.Name, len(r.DocumentAccess))
		}
	})
}

func createAgent(ctx context.Context, c *console, _ []string) error {
	llm, embedding, err := createFlags.keys.resolve(ctx, c)
	if err != nil {
		return err
	}

	in := store.NewAgent{
		Name:            createFlags.name,
		Description:     createFlags.description,
		EmbeddingModel:  createFlags.embeddingModel,
		LLMAPIKey:       llm,
		EmbeddingAPIKey: embedding,
	}
	if createFlags.provider != "" || createFlags.model != "" {
		in.Model = &agents.Model{Provider: createFlags.provider, Name: createFlags.model}
	}

	a, err := c.store.CreateAgent(ctx, in)
	if err != nil {
		return err
	}
	return printSaved(c, a)
}

func setAgent(ctx context.Context, c *console, args []string) error {
	cur, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	flags := agentsSetCmd.Flags()
	if flags.Changed("status") {
		if s := agents.Status(setFlags.status); s != agents.StatusActive && s != agents.StatusInactive {
			return fmt.Errorf("invalid status: %s", setFlags.status)
		}
	}
	if flags.Changed("format") {
		if f := agents.ResponseFormat(setFlags.format); f != agents.FormatText && f != agents.FormatStructured {
			return fmt.Errorf("invalid response format: %s", setFlags.format)
		}
	}

	var clamped bool
	err = c.store.SetAgent(ctx, cur.ID, func(a agents.Agent) agents.Agent {
		if flags.Changed("name") {
			a.Name = setFlags.name
		}
		if flags.Changed("description") {
			a.Description = setFlags.description
		}
		if flags.Changed("prompt") {
			a.SystemPrompt = setFlags.prompt
		}
		if flags.Changed("temperature") {
			a.Temperature = setFlags.temperature
		}
		if flags.Changed("max-tokens") {
			a.MaxTokens = setFlags.maxTokens
		}
		if flags.Changed("status") {
			a.Status = agents.Status(setFlags.status)
		}
		if flags.Changed("format") {
			a.ResponseFormat = agents.ResponseFormat(setFlags.format)
		}
		if flags.Changed("embedding-model") {
			a.EmbeddingModel = setFlags.embeddingModel
		}
		if flags.Changed("memory") {
			a.EnableMemory = setFlags.memory
		}
		if flags.Changed("web-search") {
			a.EnableWebSearch = setFlags.webSearch
		}
		if flags.Changed("top-k") {
			a.TopK = setFlags.topK
		}
		if flags.Changed("similarity") {
			a.SimilarityThreshold = setFlags.similarity
		}
		if flags.Changed("alpha") {
			a.HybridSearchAlpha = setFlags.alpha
		}
		clamped = a.ClampTemperature()
		return a
	})
	if err != nil {
		return err
	}
	if clamped {
		fmt.Fprintf(os.Stderr, "temperature clamped to %s\n", strconv.FormatFloat(cur.MaxTemperature(), 'f', -1, 64))
	}

	if err := c.store.Touch(ctx, cur.ID); err != nil {
		return err
	}

	saved, err := saveWithKeys(ctx, c, cur.ID, &setFlags.keys)
	if err != nil {
		return err
	}
	return printSaved(c, saved)
}

func saveAgent(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	saved, err := saveWithKeys(ctx, c, a.ID, &saveKeys)
	if err != nil {
		return err
	}
	return printSaved(c, saved)
}

func deleteAgent(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	if err := c.store.DeleteAgent(ctx, a.ID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "agent %s deleted\n", a.Name)
	return nil
}

// lookupAgent waits for the initial load and resolves id against local and remote ids.
func lookupAgent(c *console, id string) (agents.Agent, error) {
	<-c.store.Loaded()

	a, ok := c.store.Agent(id)
	if !ok {
		return agents.Agent{}, fmt.Errorf("%w: %s", agents.ErrNotFound, id)
	}
	return a, nil
}

// saveWithKeys attaches freshly resolved provider keys and saves the agent.
func saveWithKeys(ctx context.Context, c *console, id string, keys *keyFlags) (agents.Agent, error) {
	llm, embedding, err := keys.resolve(ctx, c)
	if err != nil {
		return agents.Agent{}, err
	}

	err = c.store.SetAgent(ctx, id, func(a agents.Agent) agents.Agent {
		a.SetKeys(llm, embedding)
		return a
	})
	if err != nil {
		return agents.Agent{}, err
	}
	return c.store.SaveAgent(ctx, id)
}

func printSaved(c *console, a agents.Agent) error {
	return c.out.print(a, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "saved %s\t%s\n", a.RemoteID, a.Name)
	})
}
