// Package ui renders the one-shot output of the emcbridge CLIs with
// Lipgloss: a header naming the operation and bridge, a live step list,
// and a closing success or failure box with troubleshooting tips.
//
// Controller lines are printed with FormatFrame, one style per result
// type. NewFrameResult turns a controller answer into the matching box and
// attaches hints for the bridge's own NG status codes.
//
// Runner ties the pieces together for multi-step operations:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Unlock",
//	    Command:   "emcbridge-cli unlock",
//	    Params:    map[string]string{"Bridge": url},
//	    StepNames: []string{"Connect", "Unlock"},
//	})
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    // ...
//	    onStep(1, "", ui.StepComplete, "")
//	    return nil, nil
//	})
//
// zap logging stays silent unless EMCBRIDGE_LOG_LEVEL is set, so these
// boxes are the only output by default.
package ui
