package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/pkg/cli"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab [keyword...]",
	Short: "Show the keyword vocabulary used by compose",
	Long: `Show which sounds each prompt keyword selects. Without arguments every
keyword is listed.

Extra keywords are read from the file named by 'vocabulary' in
config.yaml, a YAML or JSON map from keyword to sound names:

  harbour: [sea_waves, seagull, boat_horn]
  rain:    [heavy_rain, light_rain]

Examples:
  equivocal vocab
  equivocal vocab thunder "coffee shop"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		vocab, err := loadVocabulary(cfg)
		if err != nil {
			return err
		}
		keywords := args
		if len(keywords) == 0 {
			keywords = vocab.Keywords()
		}
		var list vocabList
		for _, k := range keywords {
			sounds, ok := vocab.Lookup(k)
			if !ok {
				return fmt.Errorf("unknown keyword %q", k)
			}
			list = append(list, vocabEntry{Keyword: k, Sounds: sounds})
		}
		return output(list, "")
	},
}

type vocabEntry struct {
	Keyword string   `json:"keyword"`
	Sounds  []string `json:"sounds"`
}

type vocabList []vocabEntry

func (l vocabList) Card() cli.Card {
	c := cli.Card{Title: "Vocabulary", Subtitle: fmt.Sprintf("%d keywords", len(l))}
	for _, e := range l {
		c.Rows = append(c.Rows, cli.Row{Label: e.Keyword, Value: strings.Join(e.Sounds, ", ")})
	}
	return c
}

func init() {
	rootCmd.AddCommand(vocabCmd)
}
