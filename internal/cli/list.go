package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	var (
		group  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Load and print the collection",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.view.Load(cmd.Context()); err != nil {
				return err
			}
			items := app.view.Items()
			out := cmd.OutOrStdout()

			if asJSON {
				b, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return fmt.Errorf("json marshal: %w", err)
				}
				fmt.Fprintln(out, string(b))
				return nil
			}
			fmt.Fprintln(out, renderList(items, group))
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func renderList(items []model.Item, group bool) string {
	t := ui.Current()
	d, _ := model.Stats(items)

	lines := []string{
		ui.Header(items),
		t.Muted.Render(ui.ProgressBar(d, len(items), 28)),
		"",
	}
	if group {
		lines = append(lines, ui.GroupLines(items)...)
	} else {
		lines = append(lines, ui.FlatLines(items)...)
	}
	lines = append(lines, "", t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	return ui.Panel(lines)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments", cmd.Name())
	}
	return nil
}
