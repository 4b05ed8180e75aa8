package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
)

var jqQuery string

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "Inspect learned sound prototypes",
}

var soundsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned sounds",
	Long: `List learned sounds with their tier and sample count.

Examples:
  equivocal sounds list
  equivocal sounds list --format json --jq '.[] | select(.tier == "Tier_2") | .name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		protos, err := e.engine.Library().List(cmd.Context())
		if err != nil {
			return err
		}
		list := make(soundList, len(protos))
		for i, p := range protos {
			list[i] = soundEntry{
				Name:      p.Name,
				Tier:      p.Tier,
				Samples:   p.Samples,
				LearnedAt: p.LearnedAt.Format("2006-01-02 15:04:05"),
			}
		}
		return output(list, jqQuery)
	},
}

type soundEntry struct {
	Name      string `json:"name"`
	Tier      string `json:"tier"`
	Samples   int    `json:"samples"`
	LearnedAt string `json:"learned_at"`
}

type soundList []soundEntry

func (l soundList) Card() cli.Card {
	c := cli.Card{Title: fmt.Sprintf("%d sounds", len(l))}
	for _, s := range l {
		c.Rows = append(c.Rows, cli.Row{Label: s.Name, Value: fmt.Sprintf("%s, %d samples", s.Tier, s.Samples)})
	}
	if len(l) == 0 {
		c.Footer = "run 'equivocal learn <root>' to learn sounds"
	}
	return c
}

var soundsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a learned sound with its descriptors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		p, err := e.engine.Library().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputDoc(p, jqQuery)
	},
}

var soundsDeleteCmd = &cobra.Command{
	Use:   "delete <name>...",
	Short: "Delete learned sounds",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		lib := e.engine.Library()
		for _, name := range args {
			if _, err := lib.Get(cmd.Context(), name); err != nil {
				return err
			}
			if err := lib.Delete(cmd.Context(), name); err != nil {
				return err
			}
			cli.PrintSuccess("Deleted sound %s", name)
		}
		return nil
	},
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "Inspect stored soundscapes",
}

var scenesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored soundscapes, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		scenes, err := e.engine.Library().ListScenes(cmd.Context())
		if err != nil {
			return err
		}
		list := make(sceneList, len(scenes))
		for i, s := range scenes {
			list[i] = newSceneResult(s)
		}
		return output(list, jqQuery)
	},
}

type sceneList []*sceneResult

func (l sceneList) Card() cli.Card {
	c := cli.Card{Title: fmt.Sprintf("%d soundscapes", len(l))}
	for _, s := range l {
		var sounds []string
		for _, comp := range s.Components {
			sounds = append(sounds, comp.Sound)
		}
		label := s.Prompt
		if label == "" {
			label = "(blend)"
		}
		c.Rows = append(c.Rows, cli.Row{Label: s.ID[:8], Value: fmt.Sprintf("%s: %v", label, sounds)})
	}
	return c
}

var scenesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a stored soundscape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid soundscape ID %q: %w", args[0], err)
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		s, err := e.engine.Library().GetScene(cmd.Context(), id)
		if err != nil {
			return err
		}
		return output(newSceneResult(s), jqQuery)
	},
}

var scenesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete stored soundscapes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, len(args))
		for i, a := range args {
			id, err := uuid.Parse(a)
			if err != nil {
				return fmt.Errorf("invalid soundscape ID %q: %w", a, err)
			}
			ids[i] = id
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		lib := e.engine.Library()
		for _, id := range ids {
			if _, err := lib.GetScene(cmd.Context(), id); err != nil {
				return err
			}
			if err := lib.DeleteScene(cmd.Context(), id); err != nil {
				return err
			}
			cli.PrintSuccess("Deleted soundscape %s", id)
		}
		return nil
	},
}

// outputDoc prints v as a document: the table format falls back to YAML.
func outputDoc(v any, query string) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	if format == cli.FormatTable {
		format = cli.FormatYAML
	}
	return cli.Output(v, cli.OutputOptions{Format: format, File: outputFile, Query: query})
}

func init() {
	for _, c := range []*cobra.Command{soundsListCmd, soundsGetCmd, scenesListCmd, scenesGetCmd} {
		c.Flags().StringVar(&jqQuery, "jq", "", "jq expression applied to the result")
	}
	soundsCmd.AddCommand(soundsListCmd, soundsGetCmd, soundsDeleteCmd)
	scenesCmd.AddCommand(scenesListCmd, scenesGetCmd, scenesDeleteCmd)
	rootCmd.AddCommand(soundsCmd)
	rootCmd.AddCommand(scenesCmd)
}
