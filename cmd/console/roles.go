package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage an agent's roles and their document access",
}

var rolesListCmd = &cobra.Command{
	Use:   "list <agent-id>",
	Short: "List an agent's roles",
	Args:  cobra.ExactArgs(1),
	RunE:  run(listRoles),
}

var (
	roleFlags struct {
		name   string
		prompt string
		keys   keyFlags
	}

	rolesAddCmd = &cobra.Command{
		Use:   "add <agent-id>",
		Short: "Add a role and save the agent",
		Args:  cobra.ExactArgs(1),
		RunE:  run(addRole),
	}
)

var (
	removeKeys keyFlags

	rolesRemoveCmd = &cobra.Command{
		Use:   "remove <agent-id> <role-id>",
		Short: "Remove a role and save the agent",
		Args:  cobra.ExactArgs(2),
		RunE:  run(removeRole),
	}
)

var (
	grantFlags struct {
		revoke bool
		keys   keyFlags
	}

	rolesGrantCmd = &cobra.Command{
		Use:   "grant <agent-id> <role-id> <document-id>...",
		Short: "Grant a role access to documents and save the agent",
		Args:  cobra.MinimumNArgs(3),
		RunE:  run(grantRole),
	}
)

func init() {
	rolesCmd.AddCommand(rolesListCmd, rolesAddCmd, rolesRemoveCmd, rolesGrantCmd)

	rolesAddCmd.Flags().StringVar(&roleFlags.name, "name", "", "Role name (unique per agent, case-insensitive)")
	rolesAddCmd.Flags().StringVar(&roleFlags.prompt, "prompt", "", "Role prompt")
	rolesAddCmd.MarkFlagRequired("name")
	roleFlags.keys.register(rolesAddCmd)

	removeKeys.register(rolesRemoveCmd)

	rolesGrantCmd.Flags().BoolVar(&grantFlags.revoke, "revoke", false, "Revoke access instead of granting it")
	grantFlags.keys.register(rolesGrantCmd)
}

func listRoles(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}
	return printRoles(c, a.Roles)
}

func addRole(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	if _, err := c.store.PutRole(ctx, a.ID, agents.Role{
		Name:   roleFlags.name,
		Prompt: roleFlags.prompt,
	}); err != nil {
		return err
	}

	saved, err := saveWithKeys(ctx, c, a.ID, &roleFlags.keys)
	if err != nil {
		return err
	}
	return printRoles(c, saved.Roles)
}

func removeRole(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}

	if err := c.store.RemoveRole(ctx, a.ID, args[1]); err != nil {
		return err
	}

	saved, err := saveWithKeys(ctx, c, a.ID, &removeKeys)
	if err != nil {
		return err
	}
	return printRoles(c, saved.Roles)
}

func grantRole(ctx context.Context, c *console, args []string) error {
	a, err := lookupAgent(c, args[0])
	if err != nil {
		return err
	}
	roleID, docIDs := args[1], args[2:]

	if a.RoleIndex(roleID) < 0 {
		return fmt.Errorf("%w: %s", agents.ErrRoleNotFound, roleID)
	}

	// Revoking accepts ids the service no longer lists.
	if !grantFlags.revoke {
		docs, err := c.store.LoadDocuments(ctx, a.ID)
		if err != nil {
			return err
		}
		loaded := agents.Loaded(docs)
		for _, id := range docIDs {
			if _, ok := loaded.Find(id); !ok {
				return fmt.Errorf("document not found: %s", id)
			}
		}
	}

	err = c.store.SetRole(ctx, a.ID, roleID, func(r agents.Role) agents.Role {
		for _, id := range docIDs {
			if grantFlags.revoke {
				r.Revoke(id)
			} else {
				r.Grant(id)
			}
		}
		return r
	})
	if err != nil {
		return err
	}
	if err := c.store.Touch(ctx, a.ID); err != nil {
		return err
	}

	saved, err := saveWithKeys(ctx, c, a.ID, &grantFlags.keys)
	if err != nil {
		return err
	}
	return printRoles(c, saved.Roles)
}

func printRoles(c *console, roles []agents.Role) error {
	return c.out.print(roles, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tDOCUMENTS")
		for _, r := range roles {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, orDash(strings.Join(r.DocumentAccess, ",")))
		}
	})
}
