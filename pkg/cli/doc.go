// Package cli provides the shared plumbing for the equivocal command line:
//
//   - Output formatting (YAML, JSON, styled cards, raw) with optional jq
//     filtering
//   - Request file loading (YAML/JSON, or stdin)
//   - Per-user data directories
//   - lipgloss styles for terminal cards
//
// Example usage:
//
//	err := cli.Output(scene, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Query:  ".components[].category",
//	})
package cli
