package main

import (
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <entity-id>",
	Short: "Recompute and print an entity's statistical profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		result, err := app.service.RecomputeEntity(ctx, args[0])
		if err != nil {
			return err
		}
		printCaveats(result.Caveats)
		if result.Profile == nil {
			return printJSON(map[string]any{"entity_id": args[0], "profile": nil})
		}
		return printJSON(result.Profile)
	},
}

var linesCmd = &cobra.Command{
	Use:   "lines <entity-id>",
	Short: "Recompute and print an entity's jurisprudential lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		result, err := app.service.RecomputeEntity(ctx, args[0])
		if err != nil {
			return err
		}
		printCaveats(result.Caveats)
		return printJSON(result.Lines)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <entity-id>",
	Short: "Recompute and print an entity's influence edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		result, err := app.service.RecomputeEntity(ctx, args[0])
		if err != nil {
			return err
		}
		printCaveats(result.Caveats)
		return printJSON(result.Edges)
	},
}
