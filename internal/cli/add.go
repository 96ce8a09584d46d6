package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

func newAddCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create an item (title can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: todo add <title...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := app.view.Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				b, err := json.Marshal(it)
				if err != nil {
					return fmt.Errorf("json marshal: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d %s", it.ID, it.Title))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the created item as JSON")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete the item with the given id",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("usage: todo rm <id>")
			}
			if _, err := strconv.Atoi(args[0]); err != nil {
				return usagef("rm: not a number: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.Atoi(args[0])
			if err := app.view.Delete(cmd.Context(), id); err != nil {
				if remote.IsNotFound(err) {
					return fmt.Errorf("no such item #%d", id)
				}
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}
