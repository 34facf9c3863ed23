package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"forensiclens/internal/config"
	"forensiclens/internal/engine"
	"forensiclens/internal/loader"
	"forensiclens/internal/logger"
	"forensiclens/internal/report"
	"forensiclens/internal/visualize"
	"forensiclens/pkg/models"
)

var (
	flagOut     string
	flagWorkers int
	flagNoColor bool
	flagNoSave  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Run all forensic techniques against an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "",
		"output directory for the report and evidence heatmaps")
	analyzeCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0,
		"number of analyzer workers (0 = one per CPU)")
	analyzeCmd.Flags().BoolVar(&flagNoColor, "no-color", false,
		"disable colored report output")
	analyzeCmd.Flags().BoolVar(&flagNoSave, "no-save", false,
		"print the report without writing any files")
}

// progressObserver feeds engine events into a terminal progress bar.
type progressObserver struct {
	bar *progressbar.ProgressBar
}

func (p *progressObserver) OnEvent(_ context.Context, event engine.AnalysisEvent) {
	switch event.EventType {
	case engine.TechniqueCompleted:
		p.bar.Describe(fmt.Sprintf("analyzed %s", event.Technique))
		_ = p.bar.Add(1)
	case engine.AnalysisCompleted, engine.AnalysisFailed:
		_ = p.bar.Finish()
	}
}

func (p *progressObserver) GetObserverName() string { return "progressbar" }

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !loader.SupportedExtension(path) {
		return fmt.Errorf("unsupported file type %q (want .jpg, .png or .bmp)", path)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagOut != "" {
		cfg.OutputDir = flagOut
	}

	th, err := config.LoadThresholds(flagThresholds)
	if err != nil {
		return err
	}

	in, err := loader.Load(path, cfg)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, th)
	if err != nil {
		return err
	}
	defer eng.Close()

	bar := progressbar.NewOptions(models.TechniqueCount,
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
	eng.Subscribe(&progressObserver{bar: bar})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fr, err := eng.Analyze(ctx, in)
	if err != nil {
		return err
	}

	report.Print(os.Stdout, fr, flagNoColor)

	if !flagNoSave {
		if _, err := report.Write(fr, cfg.OutputDir); err != nil {
			return err
		}
		if _, err := visualize.SaveArtifacts(fr, cfg.OutputDir); err != nil {
			return err
		}
	}

	if fr.Incomplete {
		logger.Warn("verdict computed from a partial technique set")
	}
	return nil
}
