package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/agentic-research/assetcache/internal/cache"
	"github.com/agentic-research/assetcache/internal/scene"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect KEY...",
	Short: "Load assets and print their structure and footprint",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(newLogger(cmd))
		if err != nil {
			return err
		}
		defer engine.Teardown()

		out := cmd.OutOrStdout()
		var failed int
		for _, key := range args {
			asset, err := engine.Load(cmd.Context(), key, cache.DefaultOptions())
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", key, err)
				failed++
				continue
			}
			describe(out, asset)
			asset.Dispose()
		}

		m := engine.MemoryEstimate()
		fmt.Fprintf(out, "Total: %s vertices, %d textures, ~%s\n",
			humanize.Comma(int64(m.VertexCount)), m.TextureCount,
			humanize.IBytes(uint64(m.EstimatedMB*1024*1024)))

		if failed > 0 {
			return fmt.Errorf("%d of %d assets failed to load", failed, len(args))
		}
		return nil
	},
}

func describe(w io.Writer, a *scene.Asset) {
	nodes, meshes := a.Counts()
	vertices, textures := a.Footprint()
	fmt.Fprintf(w, "%s: %d nodes, %d meshes, %s vertices, %d textures, %d clips\n",
		a.Key, nodes, meshes, humanize.Comma(int64(vertices)), textures, len(a.Animations))

	bounds := scene.EmptyBox()
	a.Root.Meshes(func(_ *scene.Node, m *scene.Mesh) {
		if m.Geometry != nil && m.Geometry.BoundingBox != nil {
			bounds = bounds.Union(*m.Geometry.BoundingBox)
		}
	})
	if !bounds.IsEmpty() {
		fmt.Fprintf(w, "  bounds: min %v max %v\n", bounds.Min, bounds.Max)
	}
	for _, c := range a.Animations {
		fmt.Fprintf(w, "  clip %q: %.2fs, %d channels\n", c.Name, c.Duration, c.Channels)
	}
}
