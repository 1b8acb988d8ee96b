package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/uploads"
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage an agent's knowledge base",
}

var (
	unassignedOnly bool

	documentsListCmd = &cobra.Command{
		Use:   "list <agent-id>",
		Short: "List an agent's documents",
		Args:  cobra.ExactArgs(1),
		RunE:  run(listDocuments),
	}
)

var (
	noWait bool

	documentsUploadCmd = &cobra.Command{
		Use:   "upload <agent-id> <file>...",
		Short: "Upload files to an agent's knowledge base",
		Long: `Upload sends files one at a time. The first rejected file stops the batch.
Accepted files are processed in the background; by default the command waits
until every file has been reconciled with the service.`,
		Args: cobra.MinimumNArgs(2),
		RunE: run(uploadDocuments),
	}
)

var (
	deleteKeys keyFlags

	documentsDeleteCmd = &cobra.Command{
		Use:   "delete <agent-id> <document-id>",
		Short: "Delete a document and revoke it from every role",
		Long: `Delete removes the document from the knowledge base. When a role grants
access to it, the access is revoked and the agent is saved, which needs the
provider keys.`,
		Args: cobra.ExactArgs(2),
		RunE: run(deleteDocument),
	}
)

func init() {
	documentsCmd.AddCommand(documentsListCmd, documentsUploadCmd, documentsDeleteCmd)

	documentsListCmd.Flags().BoolVar(&unassignedOnly, "unassigned", false, "Only list documents no role can access")
	documentsUploadCmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the files are accepted")
	deleteKeys.register(documentsDeleteCmd)
}

func listDocuments(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	docs, err := c.store.LoadDocuments(ctx, a.ID)
	if err != nil {
		return err
	}
	if unassignedOnly {
		a.Documents = agents.Loaded(docs)
		docs = a.UnassignedDocuments()
	}
	return printDocuments(c, docs)
}

func uploadDocuments(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	files := make([]uploads.File, 0, len(args)-1)
	for _, path := range args[1:] {
		f, err := uploads.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	if err := c.uploads.Upload(ctx, a.ID, files); err != nil {
		return err
	}

	if !noWait {
		done := make(chan struct{})
		go func() {
			c.uploads.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cur, _ := c.store.Agent(a.ID)
	return printDocuments(c, cur.Documents.Items())
}

func deleteDocument(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}
	docID := args[1]

	if _, err := c.store.LoadDocuments(ctx, a.ID); err != nil {
		return err
	}

	granted := slices.ContainsFunc(a.Roles, func(r agents.Role) bool {
		return slices.Contains(r.DocumentAccess, docID)
	})

	if err := c.store.DeleteDocument(ctx, a.ID, docID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "document %s deleted\n", docID)

	if !granted {
		return nil
	}

	saved, err := saveWithKeys(ctx, c, a.ID, &deleteKeys)
	if err != nil {
		return fmt.Errorf("document deleted but role access not saved: %w", err)
	}
	return printRoles(c, saved.Roles)
}

func printDocuments(c *console, docs []agents.Document) error {
	return c.out.print(docs, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tPAGES\tUPLOADED\tSTATUS")
		for _, d := range docs {
			pages := "-"
			if d.Pages > 0 {
				pages = fmt.Sprint(d.Pages)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.Name, d.Type, d.Size, pages, d.UploadDate, d.Status)
		}
	})
}
