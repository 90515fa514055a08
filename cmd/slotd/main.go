package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/config"
	appLog "github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/scheduler"
	"github.com/sandeepkv93/slotd/internal/storage"
	"github.com/sandeepkv93/slotd/internal/update"
)

type flagConfig struct {
	configPath string
	dbPath     string
	userID     string
	exportPath string
	importPath string
	from       string
	to         string
	logLevel   string
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "slotd failed: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.dbPath, "db", "", "SQLite database path (overrides config)")
	flag.StringVar(&cfg.userID, "user", "", "User whose timetable is shown (overrides config)")
	flag.StringVar(&cfg.exportPath, "export", "", "Write an iCalendar feed to this path and exit")
	flag.StringVar(&cfg.importPath, "import", "", "Import templates and overrides from a YAML file")
	flag.StringVar(&cfg.from, "from", "", "Export window start YYYY-MM-DD (default: first day of this month)")
	flag.StringVar(&cfg.to, "to", "", "Export window end YYYY-MM-DD (default: last day of this month)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "debug, info or error (overrides config)")

	flag.Parse()
	return cfg
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "slotd.yaml"
	}
	return filepath.Join(dir, "slotd", "config.yaml")
}

func loadConfig(flags flagConfig) (*config.Config, error) {
	base, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg := config.FromEnv(*base)
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.userID != "" {
		cfg.UserID = flags.userID
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	cfg.Normalize()
	return &cfg, nil
}

func run(flags flagConfig) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	appLog.SetOutput(logFile)
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	appLog.Info("slotd starting", "db", cfg.DBPath, "user", cfg.UserID, "week_start", cfg.WeekStart, "slot_minutes", cfg.SlotMinutes)

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		appLog.Error("open database failed", err, "db", cfg.DBPath)
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	loc := cfg.Location()
	backend := update.NewStoreBackend(repo, cfg.UserID, loc)

	if flags.importPath != "" {
		res, err := backend.Import(ctx, flags.importPath)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d new, %d updated template(s), %d override(s)\n", res.Created, res.Updated, res.Overrides)
		if flags.exportPath == "" {
			return nil
		}
	}
	if flags.exportPath != "" {
		w, err := exportWindow(flags.from, flags.to, loc)
		if err != nil {
			return err
		}
		res, err := backend.Export(ctx, flags.exportPath, w)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d event(s) for %s to %s\n", res.Events, w, flags.exportPath)
		return nil
	}

	return runProgram(ctx, cfg, backend)
}

// exportWindow defaults to the current month when a bound is missing.
func exportWindow(from, to string, loc *time.Location) (schedule.Window, error) {
	month := schedule.MonthWindow(model.DateOf(time.Now().In(loc)))
	if from == "" {
		from = month.Start.String()
	}
	if to == "" {
		to = month.End.String()
	}
	return schedule.ParseWindow(from, to)
}

func runProgram(ctx context.Context, cfg *config.Config, backend *update.StoreBackend) error {
	loc := cfg.Location()
	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	planner := &scheduler.Planner{
		Loader:   backend.Service,
		Engine:   engine,
		UserID:   cfg.UserID,
		Lead:     cfg.ReminderLead(),
		Location: loc,
	}
	if _, err := planner.PlanDay(ctx); err != nil {
		appLog.Error("initial reminder planning failed", err, "user", cfg.UserID)
	}

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	program := tea.NewProgram(
		update.NewModelWithRuntime(backend, update.SettingsFromConfig(cfg), engine, notifier),
		tea.WithAltScreen(),
	)

	jobs := scheduler.NewCron(loc)
	rollover := func() error {
		_, err := planner.PlanDay(ctx)
		program.Send(update.RefreshMsg{})
		return err
	}
	var err error
	if _, daily := cfg.RolloverClock(); daily {
		_, err = jobs.ScheduleDaily(cfg.RolloverCron, "rollover", rollover)
	} else {
		_, err = jobs.Schedule(cfg.RolloverCron, "rollover", rollover)
	}
	if err != nil {
		return err
	}
	if cfg.ICSPath != "" {
		if _, err := jobs.Schedule(cfg.ICSRefreshCron, "ics-refresh", func() error {
			w := schedule.MonthWindow(model.DateOf(time.Now().In(loc)))
			_, err := backend.Export(ctx, cfg.ICSPath, w)
			return err
		}); err != nil {
			return err
		}
	}
	jobs.Start()
	defer jobs.Stop()
	appLog.Info("cron jobs scheduled", "count", jobs.Entries(), "rollover", cfg.RolloverCron)

	if _, err := program.Run(); err != nil {
		return err
	}
	appLog.Info("slotd exiting", "user", cfg.UserID)
	return nil
}
