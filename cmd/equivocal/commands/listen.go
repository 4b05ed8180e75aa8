package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/latent"
	"github.com/haivivi/equivocal/pkg/scene"
)

// target is a descriptor map resolved from a command argument.
type target struct {
	Name   string
	Kind   string // "sound", "scene" or "file"
	Latent latent.Map
}

// resolveTarget reads arg as a WAV file path, a soundscape ID or a sound
// name, in that order.
func resolveTarget(ctx context.Context, e *scene.Engine, arg string) (*target, error) {
	if strings.EqualFold(filepath.Ext(arg), ".wav") {
		if _, err := os.Stat(arg); err == nil {
			m, err := e.Analyze(ctx, arg)
			if err != nil {
				return nil, err
			}
			return &target{Name: arg, Kind: "file", Latent: m}, nil
		}
	}
	if id, err := uuid.Parse(arg); err == nil {
		s, err := e.Library().GetScene(ctx, id)
		if err != nil {
			return nil, err
		}
		return &target{Name: id.String(), Kind: "scene", Latent: s.Latent}, nil
	}
	p, err := e.Library().Get(ctx, arg)
	if err != nil {
		if errors.Is(err, scene.ErrUnknownSound) {
			return nil, fmt.Errorf("%q is not a learned sound, soundscape ID or WAV file", arg)
		}
		return nil, err
	}
	return &target{Name: p.Name, Kind: "sound", Latent: p.Latent}, nil
}

var listenCmd = &cobra.Command{
	Use:   "listen <sound|scene-id|file.wav>",
	Short: "Describe a sound, soundscape or clip in plain language",
	Long: `Read the descriptors of a learned sound, a stored soundscape or a WAV
file as mood, energy, pattern, character, evolution, texture and space.

Examples:
  equivocal listen forest_ambience
  equivocal listen 0b7e2c1e-6a43-4c8e-9d0c-5b9f1f2f6e11
  equivocal listen ./clip.wav --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		t, err := resolveTarget(cmd.Context(), e.engine, args[0])
		if err != nil {
			return err
		}
		return output(&listenResult{
			Target:  t.Name,
			Kind:    t.Kind,
			Reading: e.engine.Listen(t.Latent),
			Latent:  t.Latent,
		}, "")
	},
}

type listenResult struct {
	Target  string                `json:"target"`
	Kind    string                `json:"kind"`
	Reading latent.Interpretation `json:"reading"`
	Latent  latent.Map            `json:"latent"`
}

func (r *listenResult) Card() cli.Card {
	c := cli.Card{
		Title:    r.Target,
		Subtitle: r.Kind,
		Rows:     readingRows(r.Reading, r.Latent),
	}
	onsets, ok1 := lookupFloat(r.Latent, latent.KeyOnsets, latent.KeyNumOnsets)
	pitch, ok2 := lookupFloat(r.Latent, latent.KeyPitch, latent.KeyMeanPitch)
	if ok1 && ok2 {
		c.Footer = fmt.Sprintf("%.0f onsets, mean pitch %.0f Hz", onsets, pitch)
	}
	return c
}

func lookupFloat(m latent.Map, path ...string) (float64, bool) {
	v, ok := m.Lookup(path...)
	if !ok {
		return 0, false
	}
	return v.Float()
}

var similarK int

var similarCmd = &cobra.Command{
	Use:   "similar <sound|scene-id|file.wav>",
	Short: "Find the learned sounds closest to a target",
	Long: `Rank learned sounds by cosine distance to the target over standardized
descriptors.

Examples:
  equivocal similar heavy_rain
  equivocal similar ./clip.wav -k 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.close()

		t, err := resolveTarget(cmd.Context(), e.engine, args[0])
		if err != nil {
			return err
		}
		k := similarK
		if t.Kind == "sound" {
			// The target itself is always the nearest match.
			k++
		}
		neighbors, err := e.engine.Similar(cmd.Context(), t.Latent, k)
		if err != nil {
			return err
		}
		res := &similarResult{Target: t.Name}
		for _, n := range neighbors {
			if t.Kind == "sound" && n.Name == t.Name {
				continue
			}
			if len(res.Neighbors) == similarK {
				break
			}
			res.Neighbors = append(res.Neighbors, n)
		}
		return output(res, "")
	},
}

type similarResult struct {
	Target    string           `json:"target"`
	Neighbors []scene.Neighbor `json:"neighbors"`
}

func (r *similarResult) Card() cli.Card {
	c := cli.Card{Title: "Similar to " + r.Target}
	for _, n := range r.Neighbors {
		c.Rows = append(c.Rows, cli.Row{
			Label: n.Name,
			Value: fmt.Sprintf("%.3f", n.Similarity),
			Level: float64(n.Similarity),
			Gauge: true,
		})
	}
	if len(r.Neighbors) == 0 {
		c.Footer = "no comparable sounds"
	}
	return c
}

func init() {
	similarCmd.Flags().IntVarP(&similarK, "top", "k", 5, "number of sounds to show")
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(similarCmd)
}
