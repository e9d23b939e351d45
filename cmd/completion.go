package cmd

import (
	"github.com/etnz/pricelog/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the plog command line for shell completion.
func Completion() *complete.Command {
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"sample": {Flags: map[string]complete.Predictor{"w": predict.Something}},
			"report": {Flags: map[string]complete.Predictor{
				"o":               predict.Files("*.md"),
				"raw":             predict.Nothing,
				"skip-indicators": predict.Nothing,
				"skip-monthly":    predict.Nothing,
			}},
			"export": {Flags: map[string]complete.Predictor{"o": predict.Files("*.xlsx")}},
			"prune":  {Flags: map[string]complete.Predictor{"n": predict.Something}},
			"fmt":    {},
			"topic":  {Flags: map[string]complete.Predictor{"raw": predict.Nothing}, Args: predict.Set(topics())},
		},
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
			"v":      predict.Nothing,
		},
	}
}

func topics() []string {
	topics, _ := docs.GetAllTopics()
	return append(topics, "*")
}
