package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pikeandvine/tweetbot/internal/bot"
	"github.com/pikeandvine/tweetbot/internal/config"
	"github.com/pikeandvine/tweetbot/internal/database"
	"github.com/pikeandvine/tweetbot/internal/draft"
	"github.com/pikeandvine/tweetbot/internal/llm"
	"github.com/pikeandvine/tweetbot/internal/notify"
	"github.com/pikeandvine/tweetbot/internal/publish"
	"github.com/pikeandvine/tweetbot/internal/schedule"
	"github.com/pikeandvine/tweetbot/internal/scrape"
	"github.com/pikeandvine/tweetbot/internal/shot"
	"github.com/pikeandvine/tweetbot/internal/source"
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
	Use:     "tweetbot",
	Short:   "Scheduled social promotion for site content",
	Long:    "tweetbot picks an eligible page from the site once a day, drafts promotional text with an LLM and posts it, avoiding repeats within a cooldown window.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Credentials usually live in a .env next to the binary; absence is
		// fine, the environment may already be populated.
		godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		setupLogging()
		return nil
	},
}

// setupLogging mirrors the log stream into a rotating file so unattended
// scheduled runs stay diagnosable.
func setupLogging() {
	logFile := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		log.Printf("Cannot create log directory, logging to stderr only: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     90, // days
	}))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "tweetbot.db"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tweetbot", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tweetbot/",
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
		fmt.Println("Edit it to configure the site, source and credentials, then set the *_env variables in .env.")
		return nil
	},
}

// --- run command ---

var (
	dryRun bool
	force  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Select, draft and post one promotion",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Credentials are checked before anything else happens; a missing
		// variable must not leave half a run behind.
		if err := cfg.ValidateCredentials(dryRun); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		src, err := source.New(cfg)
		if err != nil {
			return err
		}

		provider := llm.NewOpenAIProvider(cfg.OpenAIKey(), cfg.Drafting.Models, "")
		drafter := draft.New(provider, cfg.Site.Title, cfg.Site.Description, cfg.Drafting.MaxTokens)

		var publisher publish.Publisher
		if dryRun {
			publisher = publish.DryRunPublisher{}
		} else {
			creds := cfg.ResolveTwitterCredentials()
			publisher = publish.NewTwitterPublisher(publish.Credentials{
				APIKey:       creds.APIKey,
				APISecret:    creds.APISecret,
				AccessToken:  creds.AccessToken,
				AccessSecret: creds.AccessSecret,
			})
		}

		b := bot.New(bot.Deps{
			Config:    cfg,
			DB:        db,
			Source:    src,
			Scraper:   scrape.New(0, cfg.Scrape.TagsSelector),
			Drafter:   drafter,
			Shots:     shot.New(cfg.Screenshots.ServiceURL),
			Publisher: publisher,
			Notifier:  notify.New("", cfg.Notifications.Topic),
			Gate:      schedule.NewGate(cfg.ScheduleFile(), cfg.Schedule.ToleranceMinutes),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := b.Run(ctx, bot.Options{DryRun: dryRun, Force: force})
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Println("Not this run's slot, nothing to do.")
			return nil
		}

		if dryRun {
			fmt.Println("Dry run, nothing posted.")
		}
		fmt.Printf("Page:  %s\n", result.URL)
		fmt.Printf("Title: %s\n", result.Title)
		fmt.Printf("Text:  %s\n", result.Text)
		if result.ExternalID != "" {
			fmt.Printf("Tweet: https://twitter.com/i/web/status/%s\n", result.ExternalID)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Select and draft but do not post")
	runCmd.Flags().BoolVar(&force, "force", false, "Bypass the daily scheduling gate")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show promotion history statistics",
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

		fmt.Println("Promotion history:")
		fmt.Printf("  Pages promoted: %d\n", stats.TotalPosts)
		fmt.Printf("  Successful promotions: %d\n", stats.TotalPromotions)
		fmt.Printf("  Promotions in last 7 days: %d\n", stats.LastSevenDays)
		return nil
	},
}

// --- cleanup command ---

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [days]",
	Short: "Prune promotion events older than the retention horizon",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.Promotion.RetentionDays
		if len(args) == 1 {
			d, err := strconv.Atoi(args[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid retention days: %s", args[0])
			}
			days = d
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.Prune(days)
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		fmt.Printf("Deleted %d events older than %d days. Promoted pages are kept.\n", deleted, days)
		return nil
	},
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show today's posting slot (choosing one if needed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		gate := schedule.NewGate(cfg.ScheduleFile(), cfg.Schedule.ToleranceMinutes)

		slot, err := gate.Today()
		if err != nil {
			return fmt.Errorf("reading schedule: %w", err)
		}

		fmt.Printf("Date: %s\n", slot.Date)
		fmt.Printf("Slot: %02d:%02d UTC (+/- %d min)\n", slot.Hour, slot.Minute, cfg.Schedule.ToleranceMinutes)

		ok, err := gate.ShouldRunNow()
		if err != nil {
			return err
		}
		if ok {
			fmt.Println("A run started now would proceed.")
		} else {
			fmt.Println("A run started now would be skipped.")
		}
		return nil
	},
}
