package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/slotd/internal/model"
)

var ErrEmptyPath = errors.New("config: path is empty")

const (
	defaultDBPath       = "slotd.db"
	defaultUserID       = "local"
	defaultWeekStart    = "monday"
	defaultSlotMinutes  = 60
	defaultDayStart     = "06:00"
	defaultDayEnd       = "23:00"
	defaultReminderLead = 10
	defaultBuffer       = 64
	defaultLogLevel     = "info"
	defaultLogFile      = "slotd.log"
	defaultRollover     = "5 0 * * *"
	defaultICSRefresh   = "*/30 * * * *"
)

// Config is the runtime configuration of slotd. It is read from YAML and then
// overridden by SLOTD_* environment variables and command line flags.
type Config struct {
	DBPath   string `yaml:"db_path"`
	UserID   string `yaml:"user_id"`
	Timezone string `yaml:"timezone"`

	// WeekStart is "monday" or "sunday".
	WeekStart string `yaml:"week_start"`

	// SlotMinutes is the height of one row of the week grid.
	SlotMinutes int    `yaml:"slot_minutes"`
	DayStart    string `yaml:"day_start"`
	DayEnd      string `yaml:"day_end"`

	ReminderLeadMinutes  int  `yaml:"reminder_lead_minutes"`
	SchedulerBuffer      int  `yaml:"scheduler_buffer"`
	DesktopNotifications bool `yaml:"desktop_notifications"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// RolloverCron re-plans the day's reminders, as a cron spec or an HH:MM
	// time. ICSRefreshCron rewrites ICSPath when ICSPath is set.
	RolloverCron   string `yaml:"rollover_cron"`
	ICSPath        string `yaml:"ics_path"`
	ICSRefreshCron string `yaml:"ics_refresh_cron"`
}

func Default() *Config {
	return &Config{
		DBPath:              defaultDBPath,
		UserID:              defaultUserID,
		Timezone:            "Local",
		WeekStart:           defaultWeekStart,
		SlotMinutes:         defaultSlotMinutes,
		DayStart:            defaultDayStart,
		DayEnd:              defaultDayEnd,
		ReminderLeadMinutes: defaultReminderLead,
		SchedulerBuffer:     defaultBuffer,
		LogLevel:            defaultLogLevel,
		LogFile:             defaultLogFile,
		RolloverCron:        defaultRollover,
		ICSRefreshCron:      defaultICSRefresh,
	}
}

// Normalize replaces missing or unusable values with defaults so a partial file
// still yields a runnable config.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = defaultDBPath
	}
	if strings.TrimSpace(c.UserID) == "" {
		c.UserID = defaultUserID
	}
	if _, err := time.LoadLocation(c.Timezone); c.Timezone == "" || err != nil {
		c.Timezone = "Local"
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = defaultWeekStart
	}
	switch c.SlotMinutes {
	case 15, 30, 60, 120:
	default:
		c.SlotMinutes = defaultSlotMinutes
	}
	start, errStart := model.ParseClock(c.DayStart)
	end, errEnd := model.ParseClock(c.DayEnd)
	if errStart != nil || errEnd != nil || end <= start {
		c.DayStart, c.DayEnd = defaultDayStart, defaultDayEnd
	}
	if c.ReminderLeadMinutes < 0 {
		c.ReminderLeadMinutes = defaultReminderLead
	}
	if c.SchedulerBuffer <= 0 {
		c.SchedulerBuffer = defaultBuffer
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}
	if _, daily := c.RolloverClock(); !daily && !validCron(c.RolloverCron) {
		c.RolloverCron = defaultRollover
	}
	if !validCron(c.ICSRefreshCron) {
		c.ICSRefreshCron = defaultICSRefresh
	}
}

func validCron(spec string) bool {
	if strings.TrimSpace(spec) == "" {
		return false
	}
	_, err := cron.ParseStandard(spec)
	return err == nil
}

// RolloverClock reports the time of day when RolloverCron is written as HH:MM
// instead of a cron spec.
func (c *Config) RolloverClock() (model.Clock, bool) {
	clock, err := model.ParseClock(c.RolloverCron)
	if err != nil {
		return 0, false
	}
	return clock, true
}

// Location resolves Timezone; Normalize guarantees it loads.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// DayBounds returns the visible hours of the week grid.
func (c *Config) DayBounds() (model.Clock, model.Clock) {
	start, err := model.ParseClock(c.DayStart)
	if err != nil {
		start, _ = model.ParseClock(defaultDayStart)
	}
	end, err := model.ParseClock(c.DayEnd)
	if err != nil || end <= start {
		end, _ = model.ParseClock(defaultDayEnd)
	}
	return start, end
}

func (c *Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadMinutes) * time.Minute
}

// Load reads path. A missing file yields the defaults and is not created.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".slotd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

// FromEnv applies SLOTD_* overrides on top of base. Unparseable values are ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("SLOTD_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("SLOTD_USER_ID"); ok {
		cfg.UserID = v
	}
	if v, ok := getEnvString("SLOTD_TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvString("SLOTD_WEEK_START"); ok {
		cfg.WeekStart = strings.ToLower(v)
	}
	if v, ok := getEnvInt("SLOTD_SLOT_MINUTES"); ok && v > 0 {
		cfg.SlotMinutes = v
	}
	if v, ok := getEnvString("SLOTD_DAY_START"); ok {
		cfg.DayStart = v
	}
	if v, ok := getEnvString("SLOTD_DAY_END"); ok {
		cfg.DayEnd = v
	}
	if v, ok := getEnvInt("SLOTD_REMINDER_LEAD_MINUTES"); ok && v >= 0 {
		cfg.ReminderLeadMinutes = v
	}
	if v, ok := getEnvInt("SLOTD_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvBool("SLOTD_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvString("SLOTD_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvString("SLOTD_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("SLOTD_ROLLOVER_CRON"); ok {
		cfg.RolloverCron = v
	}
	if v, ok := getEnvString("SLOTD_ICS_PATH"); ok {
		cfg.ICSPath = v
	}
	if v, ok := getEnvString("SLOTD_ICS_REFRESH_CRON"); ok {
		cfg.ICSRefreshCron = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
