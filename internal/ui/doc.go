// Package ui renders the one-shot output of smartac commands.
//
// Unlike the interactive remote in package tui, these components follow a
// "run once and exit" pattern: a command prints a Result box after a
// change is applied or when it fails, and exits.
//
//	fmt.Println(ui.RenderSuccess("Temperature set",
//	    ui.Detail{Key: "Device", Value: "Bedroom (abc123)"},
//	    ui.Detail{Key: "State", Value: "23°C On, Cool, fan auto"},
//	))
//
// Failure boxes take the short message and troubleshooting hint produced by
// the sensibo package and lay the hint out as bullet points.
//
// # Logging Integration
//
// zap logging is silent unless SMARTAC_LOG_LEVEL is set, so the curated
// output is not interleaved with log lines.
package ui
