package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/cmd/equivocal/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults are applied, with resolved
paths. The S3 secret key is never printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fb := cfg.Analysis.FBank()
		return outputDoc(configView{
			Dir:        cfg.Dir,
			Store:      storeView{Backend: cfg.Store.Backend, Dir: cfg.StoreDir()},
			Export:     cfg.ExportLocation(),
			Vocabulary: cfg.VocabularyPath(),
			Analysis: config.Analysis{
				SampleRate: fb.SampleRate,
				FrameSize:  fb.FrameSize,
				HopSize:    fb.HopSize,
				NumMels:    fb.NumMels,
				NumMFCC:    fb.NumMFCC,
				TopDB:      fb.TopDB,
			},
			LogLevel: cfg.Log.Level,
		}, "")
	},
}

type storeView struct {
	Backend string `json:"backend"`
	Dir     string `json:"dir"`
}

type configView struct {
	Dir        string          `json:"dir"`
	Store      storeView       `json:"store"`
	Export     string          `json:"export"`
	Vocabulary string          `json:"vocabulary,omitempty"`
	Analysis   config.Analysis `json:"analysis"`
	LogLevel   string          `json:"log_level"`
}

func init() {
	rootCmd.AddCommand(configCmd)
}
