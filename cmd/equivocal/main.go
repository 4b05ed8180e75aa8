// Package main is the entry point for the equivocal CLI.
//
// Usage:
//
//	equivocal [flags] <command> [subcommand] [args]
//
// Commands:
//
//	learn      - Learn sound prototypes from a folder of tiers
//	compose    - Compose a soundscape from a text prompt
//	blend      - Blend learned sounds with explicit weights
//	listen     - Describe a sound, soundscape or clip in plain language
//	similar    - Find the learned sounds closest to a target
//	sounds     - Inspect learned sounds (list, get, delete)
//	scenes     - Inspect stored soundscapes (list, get, delete)
//	export     - Export the library as a JSON model file
//	import     - Import a JSON model file
//	schema     - Print the JSON schema of model files
//	vocab      - Show the keyword vocabulary
//	config     - Print the effective configuration
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/equivocal/cmd/equivocal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
