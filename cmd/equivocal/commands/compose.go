package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/latent"
	"github.com/haivivi/equivocal/pkg/scene"
)

var composeCmd = &cobra.Command{
	Use:   "compose <prompt...>",
	Short: "Compose a soundscape from a text prompt",
	Long: `Select the learned sounds a prompt evokes and blend them equally.

Words of the prompt are looked up in the keyword vocabulary; words that
name part of a learned sound (e.g. "rain" for heavy_rain) select it too.
The soundscape is stored and can be listed with 'equivocal scenes list'.

Examples:
  equivocal compose "a peaceful forest with birds chirping"
  equivocal compose thunderstorm at night --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		s, err := e.engine.Compose(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, scene.ErrEmptyLibrary) {
				return fmt.Errorf("%w; run 'equivocal learn <root>' first", err)
			}
			return err
		}
		return output(newSceneResult(s), "")
	},
}

var blendFile string

var blendCmd = &cobra.Command{
	Use:   "blend [name[:weight]...]",
	Short: "Blend learned sounds with explicit weights",
	Long: `Blend learned sounds into a soundscape. Weights default to 1 and are
normalised to sum to one.

A recipe file (YAML or JSON, "-" for stdin) may be given instead:

  sounds:
    - name: forest_ambience
      weight: 3
    - name: bird_chirp
      weight: 1

Examples:
  equivocal blend forest_ambience:3 bird_chirp:1
  equivocal blend -f recipe.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, weights, err := blendInputs(args, blendFile)
		if err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		s, err := e.engine.Blend(cmd.Context(), names, weights)
		if err != nil {
			return err
		}
		return output(newSceneResult(s), "")
	},
}

func init() {
	blendCmd.Flags().StringVarP(&blendFile, "file", "f", "", "recipe file (YAML or JSON, - for stdin)")
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(blendCmd)
}

// blendRecipe is the file form of a blend.
type blendRecipe struct {
	Sounds []struct {
		Name   string   `yaml:"name" json:"name"`
		Weight *float64 `yaml:"weight" json:"weight"`
	} `yaml:"sounds" json:"sounds"`
}

func blendInputs(args []string, file string) ([]string, []float64, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, nil, fmt.Errorf("give sounds as arguments or with --file, not both")
	case file != "":
		var r blendRecipe
		if err := cli.LoadRequest(file, &r); err != nil {
			return nil, nil, err
		}
		if len(r.Sounds) == 0 {
			return nil, nil, fmt.Errorf("recipe %s has no sounds", file)
		}
		names := make([]string, len(r.Sounds))
		weights := make([]float64, len(r.Sounds))
		for i, s := range r.Sounds {
			names[i] = s.Name
			weights[i] = 1
			if s.Weight != nil {
				weights[i] = *s.Weight
			}
		}
		return names, weights, nil
	case len(args) == 0:
		return nil, nil, fmt.Errorf("no sounds to blend")
	}

	names := make([]string, len(args))
	weights := make([]float64, len(args))
	for i, a := range args {
		name, w, ok := strings.Cut(a, ":")
		names[i] = name
		weights[i] = 1
		if ok {
			f, err := strconv.ParseFloat(w, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid weight in %q: %w", a, err)
			}
			weights[i] = f
		}
	}
	return names, weights, nil
}

type sceneComponent struct {
	Sound    string   `json:"sound"`
	Weight   float64  `json:"weight"`
	Triggers []string `json:"triggers,omitempty"`
}

// sceneResult is the printed form of a soundscape.
type sceneResult struct {
	ID         string                `json:"id"`
	Prompt     string                `json:"prompt,omitempty"`
	Components []sceneComponent      `json:"components"`
	Reading    latent.Interpretation `json:"reading"`
	Latent     latent.Map            `json:"latent"`
	CreatedAt  string                `json:"created_at"`
}

func newSceneResult(s *scene.Soundscape) *sceneResult {
	r := &sceneResult{
		ID:        s.ID.String(),
		Prompt:    s.Prompt,
		Reading:   latent.Interpret(s.Latent),
		Latent:    s.Latent,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	for i, c := range s.Components {
		r.Components = append(r.Components, sceneComponent{
			Sound:    c.Category,
			Weight:   s.Weights[i],
			Triggers: c.Triggers,
		})
	}
	return r
}

func (r *sceneResult) Card() cli.Card {
	c := cli.Card{
		Title:    "Soundscape " + r.ID,
		Subtitle: r.Prompt,
		Footer:   "created " + r.CreatedAt,
	}
	for _, comp := range r.Components {
		value := fmt.Sprintf("%.2f", comp.Weight)
		if len(comp.Triggers) > 0 {
			value += " (" + strings.Join(comp.Triggers, ", ") + ")"
		}
		c.Rows = append(c.Rows, cli.Row{Label: comp.Sound, Value: value, Level: comp.Weight, Gauge: true})
	}
	c.Rows = append(c.Rows, readingRows(r.Reading, r.Latent)...)
	return c
}

// readingKeys pairs each Interpretation field with the descriptor it reads.
var readingKeys = []string{
	latent.KeyValence,
	latent.KeyEnergy,
	latent.KeyComplexity,
	latent.KeyHarmonic,
	latent.KeyTrajectory,
	latent.KeyTexture,
	latent.KeyOpenness,
}

func readingRows(in latent.Interpretation, m latent.Map) []cli.Row {
	fields := in.Fields()
	rows := make([]cli.Row, len(fields))
	for i, f := range fields {
		rows[i] = cli.Row{Label: f[0], Value: f[1], Level: m.Float(readingKeys[i]), Gauge: true}
	}
	return rows
}
