package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/scene"
)

var learnTiers []string

var learnCmd = &cobra.Command{
	Use:   "learn <root>",
	Short: "Learn sound prototypes from a folder of tiers",
	Long: `Learn one prototype per category folder under the training root.

Each tier folder holds one subdirectory per category with WAV clips. The
prototype of a category is the mean of the descriptors of its clips.
Missing tiers and unreadable files are reported and skipped.

By default the tiers Tier_1, Tier_2 and Tier_3 are read. Use --tier to
choose others, optionally naming their role with dir=role.

Examples:
  equivocal learn ./samples
  equivocal learn ./samples --tier ambience=base --tier events
  equivocal learn ./samples --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tiers, err := parseTiers(learnTiers)
		if err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		report, err := e.engine.Learn(cmd.Context(), args[0], tiers)
		if err != nil {
			return err
		}
		if len(report.Learned) == 0 {
			return fmt.Errorf("no sounds learned from %s", args[0])
		}
		return output(newLearnResult(args[0], report), "")
	},
}

func init() {
	learnCmd.Flags().StringArrayVar(&learnTiers, "tier", nil, "tier folder to read, as dir or dir=role (repeatable)")
	rootCmd.AddCommand(learnCmd)
}

// parseTiers converts --tier values into tiers. No values selects the
// default layout.
func parseTiers(values []string) ([]scene.Tier, error) {
	if len(values) == 0 {
		return nil, nil
	}
	tiers := make([]scene.Tier, 0, len(values))
	for _, v := range values {
		dir, name, _ := strings.Cut(v, "=")
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return nil, fmt.Errorf("invalid --tier %q", v)
		}
		tiers = append(tiers, scene.Tier{Dir: dir, Name: strings.TrimSpace(name)})
	}
	return tiers, nil
}

type learnedSound struct {
	Name    string `json:"name"`
	Tier    string `json:"tier"`
	Samples int    `json:"samples"`
}

type learnResult struct {
	Root         string              `json:"root"`
	Sounds       []learnedSound      `json:"sounds"`
	Skipped      []scene.SkippedFile `json:"skipped,omitempty"`
	MissingTiers []string            `json:"missing_tiers,omitempty"`
	Elapsed      string              `json:"elapsed"`
}

func newLearnResult(root string, r *scene.Report) *learnResult {
	res := &learnResult{
		Root:         root,
		Skipped:      r.Skipped,
		MissingTiers: r.MissingTiers,
		Elapsed:      cli.FormatDuration(r.Elapsed),
	}
	for _, p := range r.Learned {
		res.Sounds = append(res.Sounds, learnedSound{Name: p.Name, Tier: p.Tier, Samples: p.Samples})
	}
	return res
}

func (r *learnResult) Card() cli.Card {
	c := cli.Card{
		Title:    fmt.Sprintf("Learned %d sounds", len(r.Sounds)),
		Subtitle: r.Root,
	}
	for _, snd := range r.Sounds {
		c.Rows = append(c.Rows, cli.Row{
			Label: snd.Name,
			Value: fmt.Sprintf("%s, %d samples", snd.Tier, snd.Samples),
		})
	}
	var footer []string
	if len(r.MissingTiers) > 0 {
		footer = append(footer, "missing tiers: "+strings.Join(r.MissingTiers, ", "))
	}
	if len(r.Skipped) > 0 {
		footer = append(footer, fmt.Sprintf("%d files skipped", len(r.Skipped)))
	}
	footer = append(footer, "took "+r.Elapsed)
	c.Footer = strings.Join(footer, "; ")
	return c
}
