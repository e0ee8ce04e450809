package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	trainAll     bool
	trainMateria string
)

var trainCmd = &cobra.Command{
	Use:   "train [entity-id]",
	Short: "Train an outcome model for one entity, or all with --all",
	Long: `Train builds a predictive model from an entity's labeled decisions
and persists it as a new registry version. With --all it trains every
known entity, isolating per-entity failures. --materia narrows training
to one subject matter.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().BoolVar(&trainAll, "all", false, "train every known entity")
	trainCmd.Flags().StringVar(&trainMateria, "materia", "", "restrict training to one subject matter")
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainAll == (len(args) == 1) {
		return fmt.Errorf("provide exactly one of an entity ID or --all")
	}

	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if trainAll {
		result, err := app.service.TrainAll(ctx, trainMateria)
		if err != nil {
			return err
		}
		printCaveats(result.Caveats)
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", f.EntityID, f.Message)
		}
		return printJSON(result)
	}

	result, err := app.service.TrainEntity(ctx, args[0], trainMateria)
	if err != nil {
		return err
	}
	printCaveats(result.Caveats)
	return printJSON(result.Model.Info)
}

var (
	predictInput   string
	predictMateria string
)

var predictCmd = &cobra.Command{
	Use:   "predict <entity-id>",
	Short: "Predict an outcome with an entity's latest model",
	Long: `Predict applies the entity's most recent persisted model to a factor
input read from --input (or stdin with "-"). The input is a JSON object:

  {"numeric": {"factor": 0.7}, "categorical": {"factor": "value"}}

The output includes the full probability distribution over the trained
class set. A trivial model is reported as such.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictInput, "input", "-", "path to the factor input JSON")
	predictCmd.Flags().StringVar(&predictMateria, "materia", "", "select the model trained for this subject matter")
}

type predictRequest struct {
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	var req predictRequest
	if predictInput == "-" {
		err = json.NewDecoder(os.Stdin).Decode(&req)
	} else {
		var data []byte
		data, err = os.ReadFile(predictInput)
		if err == nil {
			err = json.Unmarshal(data, &req)
		}
	}
	if err != nil {
		return fmt.Errorf("read factor input: %w", err)
	}

	pred, err := app.service.Predict(ctx, args[0], predictMateria, req.Numeric, req.Categorical)
	if err != nil {
		return err
	}
	if pred.Trivial {
		fmt.Fprintln(os.Stderr, "caveat [trivial_model]: model was trained on a single-class set")
	}
	return printJSON(pred)
}
