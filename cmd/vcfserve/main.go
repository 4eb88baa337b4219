// Command vcfserve exposes a single VCF file to tool-invoking clients over
// stdio JSON-RPC or HTTP+SSE.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/vcfserve/internal/config"
	"github.com/googlegenomics/vcfserve/internal/instrument"
	"github.com/googlegenomics/vcfserve/internal/toolserver"
	"github.com/googlegenomics/vcfserve/internal/vcfstore"
)

var (
	sseAddress     string
	debug          bool
	neverSaveIndex bool
	configPath     string
	maxChromosomes int
	regionLimit    uint64
)

var rootCmd = &cobra.Command{
	Use:   "vcfserve <vcf-file>",
	Short: "Serve a VCF file over a tool-invocation protocol",
	Long: `vcfserve exposes a single VCF file to external clients through a
tool-invocation protocol, answering position, region, and identifier
queries backed by CSI/TBI binning indices and a persisted identifier index.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	defaults := config.Default()

	rootCmd.Flags().StringVar(&sseAddress, "sse", "", "host:port to serve HTTP+SSE instead of stdio JSON-RPC")
	rootCmd.Flags().BoolVar(&debug, "debug", defaults.Debug, "log response timing and size, and enable CPU profiling")
	rootCmd.Flags().BoolVar(&neverSaveIndex, "never-save-index", defaults.NeverSaveIndex, "never write sidecar index files")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	rootCmd.Flags().IntVar(&maxChromosomes, "max-chromosomes", defaults.MaxChromosomes, "default truncation for get_statistics' per-chromosome counts")
	rootCmd.Flags().Uint64Var(&regionLimit, "region-limit", defaults.RegionLimit, "bounded-region ceiling in bases for region queries (0 uses the built-in default)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlagOverrides(&cfg, cmd.Flags())

	if cfg.Debug {
		defer profile.Start(profile.CPUProfile, profile.Quiet).Stop()
	}

	store, err := vcfstore.Open(args[0], vcfstore.Options{NeverSaveIndex: cfg.NeverSaveIndex, RegionLimit: cfg.RegionLimit})
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer store.Close()

	recorder := instrument.New(cfg.Debug)
	recorder.Logf("index acquired: %s", store.IndexOutcome)

	idleTimeout := time.Duration(cfg.IdleTimeoutMins) * time.Minute
	server := toolserver.NewWithIdleTimeout(store, recorder, cfg.MaxChromosomes, idleTimeout)

	if cfg.SSEAddress != "" {
		return server.Router().Run(cfg.SSEAddress)
	}
	return server.ServeStdio(os.Stdin, os.Stdout)
}

// applyFlagOverrides lets explicitly-set flags win over a loaded config
// file, which in turn wins over built-in defaults.
func applyFlagOverrides(cfg *config.Config, flags interface{ Changed(string) bool }) {
	if flags.Changed("sse") {
		cfg.SSEAddress = sseAddress
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("never-save-index") {
		cfg.NeverSaveIndex = neverSaveIndex
	}
	if flags.Changed("max-chromosomes") {
		cfg.MaxChromosomes = maxChromosomes
	}
	if flags.Changed("region-limit") {
		cfg.RegionLimit = regionLimit
	}
}
