package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/HighlightReel/internal/config"
	"github.com/TobiSchelling/HighlightReel/internal/database"
	"github.com/TobiSchelling/HighlightReel/internal/pipeline"
	"github.com/TobiSchelling/HighlightReel/internal/preferences"
	"github.com/TobiSchelling/HighlightReel/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "highlightreel",
	Short:   "Localized highlight reels from social media assets",
	Long:    "HighlightReel collects social assets for a venue, composes a narrated storyboard, localizes it and submits it for rendering.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setLogFlags(verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		// A missing .env is fine; real environment variables still apply.
		_ = godotenv.Load()

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.ResolveSecrets()

		if strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			setLogFlags(true)
		}
		return nil
	},
}

func setLogFlags(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rendersCmd)
	rootCmd.AddCommand(preferencesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("highlightreel", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/highlightreel/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the POI, feeds, providers and render API.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show render history and feedback totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Renders:")
		fmt.Printf("  Total: %d\n", stats.TotalRenders)
		fmt.Printf("  Executed: %d\n", stats.ExecutedRenders)
		fmt.Printf("  POIs: %d\n", stats.POIs)
		fmt.Println("\nViewers:")
		fmt.Printf("  Feedback: %d (%d helpful)\n", stats.Feedback, stats.HelpfulFeedback)
		fmt.Printf("  Telemetry events: %d\n", stats.TelemetryEvents)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect assets from the fixture and configured feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.New(cmd.Context(), cfg, pipeline.Deps{})
		if err != nil {
			return err
		}
		fmt.Println("Collecting assets from sources...")
		result, err := p.Collect(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  Unique assets: %d\n", len(result.Assets))
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nAssets by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	execute     bool
	skipEnrich  bool
	profilePath string
	locales     []string
	format      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> compose -> localize -> render -> store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if format != "" && format != "json" && format != "yaml" {
			return fmt.Errorf("unknown format %q (want json or yaml)", format)
		}
		ctx := cmd.Context()

		targets := locales
		if profilePath != "" && len(targets) == 0 {
			res, err := detectPreferences(ctx, profilePath)
			if err != nil {
				return err
			}
			targets = res.Locales()
			fmt.Printf("Viewer profile prefers %s.\n", strings.Join(targets, ", "))
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(ctx, cfg, pipeline.Deps{DB: db})
		if err != nil {
			return err
		}
		result := pipe.Run(ctx, pipeline.Options{Execute: execute, Locales: targets, SkipEnrich: skipEnrich})

		for _, step := range result.Steps {
			fmt.Printf("\nStep: %s\n", step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if err := result.Err(); err != nil {
			return err
		}

		if format != "" {
			fmt.Println()
			if err := writeView(os.Stdout, result, format); err != nil {
				return err
			}
		}

		fmt.Printf("\nManifest: %s\n", result.Stored.ManifestPath)
		if !execute {
			fmt.Println("Dry run complete. Re-run with --execute to submit the render.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&execute, "execute", false, "Submit the payload to the render API")
	runCmd.Flags().BoolVar(&skipEnrich, "skip-enrich", false, "Do not fetch captions from asset pages")
	runCmd.Flags().StringVar(&profilePath, "profile", "", "Viewer profile JSON used to pick locales")
	runCmd.Flags().StringSliceVar(&locales, "locales", nil, "Target locales (overrides config and profile)")
	runCmd.Flags().StringVar(&format, "format", "", "Print the storyboard as json or yaml")
}

func writeView(w io.Writer, result *pipeline.Result, format string) error {
	view := result.Storyboard.View()
	if format == "yaml" {
		node, err := yamlNode(view)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// yamlNode converts v through its JSON form so YAML keys match the JSON
// field names and order.
func yamlNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding storyboard: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("converting storyboard: %w", err)
	}
	blockStyle(&node)
	return &node, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// --- preferences command ---

var preferencesCmd = &cobra.Command{
	Use:   "preferences [profile.json]",
	Short: "Detect locale and accessibility needs from a viewer profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := detectPreferences(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func detectPreferences(ctx context.Context, path string) (preferences.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return preferences.Result{}, fmt.Errorf("reading profile: %w", err)
	}
	var profile preferences.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return preferences.Result{}, fmt.Errorf("parsing profile: %w", err)
	}
	d, err := preferences.New(cfg.Providers.Preferences.Settings())
	if err != nil {
		return preferences.Result{}, err
	}
	return d.Detect(ctx, profile), nil
}

// --- renders command ---

var rendersCmd = &cobra.Command{
	Use:   "renders",
	Short: "List recorded renders",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		renders, err := db.GetAllRenders()
		if err != nil {
			return err
		}
		if len(renders) == 0 {
			fmt.Println("No renders recorded. Create one with: highlightreel run")
			return nil
		}

		for _, r := range renders {
			mode := "executed"
			if r.DryRun {
				mode = "dry run"
			}
			created := ""
			if r.CreatedAt != nil {
				created = *r.CreatedAt
			}
			fmt.Printf("  %s  %-16s %-8s %-6s %d segments  %s\n", r.RenderID, r.POIID, mode, r.Provider, r.AssetCount, created)
			if r.SignedVideoURL != nil {
				fmt.Printf("      video: %s\n", *r.SignedVideoURL)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the highlights API and render browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default server.port)")
}

func openDB() (*database.DB, error) {
	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}
