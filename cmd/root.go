package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/assetcache/internal/cache"
	"github.com/agentic-research/assetcache/internal/fetch"
	"github.com/agentic-research/assetcache/internal/glb"
)

var (
	originFlag     string
	maxAssetsFlag  int
	maxFetchesFlag int
	quietFlag      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&originFlag, "origin", "o", ".", "Asset origin: a directory or an http(s) base URL")
	rootCmd.PersistentFlags().IntVar(&maxAssetsFlag, "max-assets", cache.DefaultMaxAssets, "Maximum number of cached assets")
	rootCmd.PersistentFlags().IntVar(&maxFetchesFlag, "max-fetches", 4, "Maximum concurrent transfers (0 = unbounded)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress engine logs")
}

var rootCmd = &cobra.Command{
	Use:          "assetcache",
	Short:        "Load, cache and preload GLB assets from a static origin",
	SilenceUsage: true,
}

func newLogger(cmd *cobra.Command) *log.Logger {
	if quietFlag {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

// newSource resolves --origin into a fetcher bounded by --max-fetches.
func newSource(origin string, maxFetches int) (fetch.Fetcher, error) {
	var src fetch.Fetcher
	if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		src = fetch.NewHTTP(origin)
	} else {
		dir, err := filepath.Abs(origin)
		if err != nil {
			return nil, fmt.Errorf("resolve origin %s: %w", origin, err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("stat origin: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("origin %s is not a directory", dir)
		}
		src = fetch.Billy{FS: osfs.New(dir)}
	}
	return fetch.Limit(src, maxFetches), nil
}

func newEngine(logger *log.Logger) (*cache.Engine, error) {
	src, err := newSource(originFlag, maxFetchesFlag)
	if err != nil {
		return nil, err
	}
	return cache.New(src, glb.Decode, cache.Config{MaxAssets: maxAssetsFlag, Logger: logger})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
