package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/agentic-research/assetcache/api"
	"github.com/agentic-research/assetcache/internal/preload"
	"github.com/agentic-research/assetcache/internal/report"
)

var (
	manifestPath string
	selector     string
	reportPath   string
	startDelay   time.Duration
)

func init() {
	preloadCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file (.json, .yaml, .hcl); built-in manifest if empty")
	preloadCmd.Flags().StringVar(&selector, "selector", "", "JSONPath locating the asset list in a JSON manifest")
	preloadCmd.Flags().StringVar(&reportPath, "report", "", "Append the run to this SQLite database")
	preloadCmd.Flags().DurationVar(&startDelay, "delay", 0, "Wait before starting the run")
	rootCmd.AddCommand(preloadCmd)
}

var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Warm the cache from a manifest and print a summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		manifest := api.DefaultManifest()
		name := "built-in"
		if manifestPath != "" {
			m, err := api.LoadManifest(manifestPath, selector)
			if err != nil {
				return err
			}
			manifest, name = m, manifestPath
		}

		logger := newLogger(cmd)
		engine, err := newEngine(logger)
		if err != nil {
			return err
		}
		defer engine.Teardown()

		coord := preload.New(engine, manifest, preload.WithLogger(logger))
		run := report.NewRun(name)

		var st preload.State
		if startDelay > 0 {
			states, cancel := preload.AutoStart(ctx, coord, startDelay)
			select {
			case s, ok := <-states:
				if !ok {
					return ctx.Err()
				}
				st = s
			case <-ctx.Done():
				cancel()
				return ctx.Err()
			}
		} else {
			st = coord.Start(ctx)
		}
		run.Finished = time.Now()
		run.State = st
		info := st.Cache
		run.Stats, run.Memory = info.Stats, info.Memory

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s: %d/%d assets preloaded in %v\n",
			run.ID, len(st.Preloaded), len(manifest.Assets), run.Finished.Sub(run.Started).Round(time.Millisecond))
		for _, f := range st.Errors {
			fmt.Fprintf(out, "  FAIL %s (%s): %s\n", f.Name, f.Path, f.Error)
		}
		fmt.Fprintf(out, "Cache: %d records, %s vertices, %d textures, ~%s\n",
			info.Cached, humanize.Comma(int64(info.Memory.VertexCount)), info.Memory.TextureCount,
			humanize.IBytes(uint64(info.Memory.EstimatedMB*1024*1024)))

		if reportPath != "" {
			w, err := report.Open(reportPath)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()
			if err := w.Record(run); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
			fmt.Fprintf(out, "Report written to %s\n", reportPath)
		}

		if len(st.Errors) > 0 {
			return fmt.Errorf("%d of %d assets failed", len(st.Errors), len(manifest.Assets))
		}
		return nil
	},
}
