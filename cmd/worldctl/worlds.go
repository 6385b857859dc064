package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Dan9191/world-service/internal/client"
	"github.com/Dan9191/world-service/internal/models"
	"github.com/spf13/cobra"
)

func newWorldsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worlds",
		Short: "List, create, inspect, update and delete worlds",
	}
	cmd.AddCommand(
		newWorldsListCmd(a),
		newWorldsCreateCmd(a),
		newWorldsShowCmd(a),
		newWorldsUpdateCmd(a),
		newWorldsDeleteCmd(a),
		newWorldsExportCmd(a),
	)
	return cmd
}

func newWorldsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your worlds, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := client.NewDashboard(a.client(), a.log)
			if err := dash.Load(cmd.Context()); err != nil {
				return err
			}
			worlds := dash.View().Worlds
			if len(worlds) == 0 {
				fmt.Fprintln(a.out, "No worlds yet")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVISIBILITY\tUPDATED")
			for _, w := range worlds {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.ID, w.Name, visibility(w.IsPublic), w.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newWorldsCreateCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a private world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := client.NewDashboard(a.client(), a.log)
			if err := dash.Load(cmd.Context()); err != nil {
				return err
			}
			dash.OpenCreate()
			dash.SetDraft(client.Draft{Name: args[0], Description: description})
			world, err := dash.Create(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(world)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "world description")
	return cmd
}

func newWorldsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a world with its characters, locations and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			world, err := a.client().GetWorld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(world)
		},
	}
}

func newWorldsUpdateCmd(a *app) *cobra.Command {
	var name, description string
	var public bool
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the name, description or visibility of a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.WorldPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("public") {
				patch.IsPublic = &public
			}
			world, err := a.client().UpdateWorld(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return a.printJSON(world)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description; an empty value clears it")
	cmd.Flags().BoolVar(&public, "public", false, "make the world public (--public=false to make it private)")
	return cmd
}

func newWorldsDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a world and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := func() bool {
				if yes {
					return true
				}
				fmt.Fprint(a.out, "Are you sure you want to delete this world? This action cannot be undone. [y/N] ")
				answer, _ := bufio.NewReader(a.in).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				return answer == "y" || answer == "yes"
			}
			dash := client.NewDashboard(a.client(), a.log)
			deleted, err := dash.Delete(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintln(a.out, "World deleted")
			} else {
				fmt.Fprintln(a.out, "Cancelled")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newWorldsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export ID",
		Short: "Print a world as XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.client().ExportWorld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = a.out.Write(doc)
			return err
		},
	}
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}
