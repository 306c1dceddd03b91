package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"srcset/internal/analysis"
	"srcset/internal/config"
	"srcset/internal/crawler"
	"srcset/internal/decl"
	"srcset/internal/evaluator"
	"srcset/internal/git"
	"srcset/internal/grouping"
	"srcset/internal/resolver"
	"srcset/internal/source"
	"srcset/internal/storage"
	"srcset/internal/target"
)

var (
	rootCmd = &cobra.Command{
		Use:   "srcset",
		Short: "Classify and group the source inputs of native build targets",
	}
	configPath string
	dbPath     string
	jsonOutput bool
	flatTree   bool

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "srcset.yaml", "Path to the srcset configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the snapshot database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flatTree, "flat", false, "Do not group sources by directory")

	classifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print target snapshots as JSON")
	scanCmd.Flags().String("name", "", "Target name (defaults to the directory name)")
	affectedCmd.Flags().String("base", "HEAD", "Git ref to diff the working tree against")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(ownersCmd)
	rootCmd.AddCommand(affectedCmd)
}

// loadConfig loads configuration and applies the log level and flag overrides.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", "path", configPath, "err", err)
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("Unknown log level, using info", "level", cfg.Log.Level)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}
	return cfg
}

func newEvaluator(cfg *config.Config) *evaluator.Evaluator {
	e, err := evaluator.New(cfg.Project.Root,
		evaluator.WithWorkers(cfg.Evaluator.Workers),
		evaluator.WithCacheSize(cfg.Evaluator.CacheSize),
		evaluator.WithGroupBuilder(&grouping.DirectoryBuilder{Flatten: flatTree}),
		evaluator.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to create evaluator", "err", err)
	}
	return e
}

// loadDeclarations reads the declaration file named by args or by config.
func loadDeclarations(cfg *config.Config, args []string) []decl.Target {
	path := filepath.Join(cfg.Project.Root, cfg.Project.Declarations)
	if len(args) > 0 {
		path = args[0]
	}
	targets, err := decl.LoadFile(path)
	if err != nil {
		logger.Fatal("Failed to load declarations", "err", err)
	}
	logger.Debug("Loaded declarations", "path", path, "targets", len(targets))
	return targets
}

var classifyCmd = &cobra.Command{
	Use:   "classify [declarations]",
	Short: "Evaluate declared targets and print their sources",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		targets := loadDeclarations(cfg, args)

		results, err := newEvaluator(cfg).EvaluateAll(cmd.Context(), targets)
		for _, res := range results {
			if res.Sources == nil {
				continue
			}
			if jsonOutput {
				printJSON(res.Target, res.Sources)
				continue
			}
			printTarget(os.Stdout, res.Target, res.Sources)
		}
		if err != nil {
			logger.Fatal("Classification failed", "err", err)
		}
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "Derive a target from a source directory and print it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		dir := args[0]

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				logger.Fatal("Failed to resolve directory", "dir", dir, "err", err)
			}
			name = filepath.Base(abs)
		}

		cr := crawler.NewCrawler(crawlerOptions(cfg)...)
		entries, err := cr.ScanProject(dir)
		if err != nil {
			logger.Fatal("Failed to scan directory", "dir", dir, "err", err)
		}

		ts, err := target.OfDeclaredSources(entries, resolver.NewPathResolver(dir, ""), &grouping.DirectoryBuilder{Flatten: flatTree})
		if err != nil {
			logger.Fatal("Failed to classify scanned sources", "err", err)
		}
		printTarget(os.Stdout, name, ts)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [declarations]",
	Short: "Evaluate declared targets and persist changed snapshots",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		targets := loadDeclarations(cfg, args)

		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			logger.Fatal("Failed to initialize database", "db", cfg.Storage.DB, "err", err)
		}
		defer store.Close()

		start := time.Now()
		results, evalErr := newEvaluator(cfg).EvaluateAll(cmd.Context(), targets)

		ctx := cmd.Context()
		var changed, unchanged int
		for _, res := range results {
			if res.Sources == nil {
				continue
			}
			updated, err := store.SaveTarget(ctx, res.Target, res.Sources)
			if err != nil {
				logger.Fatal("Failed to save target", "target", res.Target, "err", err)
			}
			if updated {
				changed++
				logger.Info("Target changed", "target", res.Target, "fingerprint", res.Sources.Fingerprint())
			} else {
				unchanged++
				logger.Debug("Target unchanged", "target", res.Target)
			}
		}

		fmt.Printf("✅ Synced %d targets in %v: %d changed, %d unchanged. Database: %s\n",
			changed+unchanged, time.Since(start), changed, unchanged, cfg.Storage.DB)
		if evalErr != nil {
			logger.Fatal("Some targets failed", "err", evalErr)
		}
	},
}

var ownersCmd = &cobra.Command{
	Use:   "owners PATH",
	Short: "List stored targets that declare a canonical path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			logger.Fatal("Failed to initialize database", "db", cfg.Storage.DB, "err", err)
		}
		defer store.Close()

		owners, err := store.FindTargetsByPath(cmd.Context(), source.Path(args[0]))
		if err != nil {
			logger.Fatal("Failed to query owners", "err", err)
		}
		if len(owners) == 0 {
			fmt.Printf("No targets declare %s\n", args[0])
			return
		}
		for _, o := range owners {
			fmt.Printf("%s\t%s\n", o.Target, o.Role)
		}
	},
}

var affectedCmd = &cobra.Command{
	Use:   "affected",
	Short: "List stored targets whose sources changed since a git ref",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		base, _ := cmd.Flags().GetString("base")

		changes, err := git.ChangedPaths(cfg.Project.Root, base)
		if err != nil {
			logger.Fatal("Failed to get git changes", "err", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		store, err := storage.NewSQLiteStore(cfg.Storage.DB)
		if err != nil {
			logger.Fatal("Failed to initialize database", "db", cfg.Storage.DB, "err", err)
		}
		defer store.Close()

		report, err := analysis.NewAnalyzer(store).AnalyzeImpact(cmd.Context(), changes)
		if err != nil {
			logger.Fatal("Impact analysis failed", "err", err)
		}
		for _, at := range report.Affected {
			fmt.Printf("%s\n", at.Name)
			for _, f := range at.Files {
				fmt.Printf("  %s [%s]\n", f.Path, f.Role)
			}
		}
		fmt.Printf("  -> %d targets affected, %d changed files belong to no target\n", len(report.Affected), len(report.Unowned))
	},
}

func crawlerOptions(cfg *config.Config) []crawler.Option {
	var opts []crawler.Option
	if len(cfg.Scan.Ignored) > 0 {
		opts = append(opts, crawler.WithIgnored(cfg.Scan.Ignored...))
	}
	if len(cfg.Scan.PrivateDirs) > 0 {
		opts = append(opts, crawler.WithPrivateDirs(cfg.Scan.PrivateDirs...))
	}
	return opts
}

func printJSON(name string, ts *target.TargetSources) {
	out, err := json.MarshalIndent(struct {
		Target      string                `json:"target"`
		Fingerprint string                `json:"fingerprint"`
		Sources     *target.TargetSources `json:"sources"`
	}{name, ts.Fingerprint(), ts}, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode target", "target", name, "err", err)
	}
	fmt.Println(string(out))
}
