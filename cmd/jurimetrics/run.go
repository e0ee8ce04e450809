package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	runTrainModels bool
	runMateria     string
)

var runCmd = &cobra.Command{
	Use:   "run <documents.json>",
	Short: "Run the full pipeline over a document batch",
	Long: `Run ingests a document batch, recomputes the aggregates of every
known entity, and optionally trains models (--train). Failures and
caveats are reported per unit of work; the run continues past them.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runTrainModels, "train", false, "also train models after recomputing")
	runCmd.Flags().StringVar(&runMateria, "materia", "", "restrict training to one subject matter")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	docs, err := readDocuments(args[0])
	if err != nil {
		return err
	}

	ingest, err := app.service.IngestDocuments(ctx, docs)
	if err != nil {
		return err
	}
	for _, f := range ingest.Failed {
		fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.DecisionID, f.Message)
	}

	recompute, err := app.service.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	printCaveats(recompute.Caveats)
	for _, f := range recompute.Failed {
		fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.EntityID, f.Message)
	}

	out := map[string]any{
		"ingest":    ingest,
		"recompute": recompute,
	}

	if runTrainModels {
		train, err := app.service.TrainAll(ctx, runMateria)
		if err != nil {
			return err
		}
		printCaveats(train.Caveats)
		for _, f := range train.Failed {
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.EntityID, f.Message)
		}
		out["train"] = train
	}

	return printJSON(out)
}
