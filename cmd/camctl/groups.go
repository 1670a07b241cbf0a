package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage camera groups",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := newClient().Groups(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(groups)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		fmt.Fprintln(w, "--\t----")

		for _, g := range groups {
			fmt.Fprintf(w, "%d\t%s\n", g.ID, g.Name)
		}

		return w.Flush()
	},
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := newClient().CreateGroup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(group)
		}

		fmt.Printf("Group %q created with ID %d\n", group.Name, group.ID)

		return nil
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an empty group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := newClient().DeleteGroup(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("Group %d deleted\n", id)

		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return id, nil
}

func init() {
	groupsCmd.AddCommand(groupsListCmd, groupsCreateCmd, groupsDeleteCmd)
}
