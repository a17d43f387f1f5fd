package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bodyworks/scheduler-api/internal/model"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Reminder     ReminderConfig     `mapstructure:"reminder"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Availability AvailabilityConfig `mapstructure:"availability"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	// Driver selects the store backing the scheduler: "postgres" or
	// "memory".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type AuthConfig struct {
	TokenSecret       string `mapstructure:"token_secret"`
	TokenExpiryHours  int    `mapstructure:"token_expiry_hours"`
	OwnerPasswordHash string `mapstructure:"owner_password_hash"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type ReminderConfig struct {
	LeadHours       int    `mapstructure:"lead_hours"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	NotifyTo        string `mapstructure:"notify_to"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// AvailabilityConfig is the practice owner's weekly working-hours
// configuration, the settings-UI boundary of the scheduling core.
type AvailabilityConfig struct {
	Days      map[string]DayHoursConfig `mapstructure:"days"`
	Overrides map[string]DayHoursConfig `mapstructure:"overrides"`
}

type DayHoursConfig struct {
	Working    bool   `mapstructure:"working"`
	Start      string `mapstructure:"start"`
	End        string `mapstructure:"end"`
	BreakStart string `mapstructure:"break_start"`
	BreakEnd   string `mapstructure:"break_end"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ToModel converts the configured hours into a validated availability
// snapshot. Returns nil when no days are configured, which disables
// the working-hours check.
func (c AvailabilityConfig) ToModel() (*model.WeeklyAvailability, error) {
	if len(c.Days) == 0 && len(c.Overrides) == 0 {
		return nil, nil
	}

	avail := &model.WeeklyAvailability{
		Days:      make(map[time.Weekday]model.DaySchedule),
		Overrides: make(map[string]model.DaySchedule),
	}

	for name, day := range c.Days {
		weekday, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		sched, err := day.toSchedule()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		avail.Days[weekday] = sched
	}

	for date, day := range c.Overrides {
		sched, err := day.toSchedule()
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", date, err)
		}
		avail.Overrides[date] = sched
	}

	if err := avail.Validate(); err != nil {
		return nil, fmt.Errorf("invalid availability: %w", err)
	}
	return avail, nil
}

func (d DayHoursConfig) toSchedule() (model.DaySchedule, error) {
	sched := model.DaySchedule{Working: d.Working}
	if !d.Working {
		return sched, nil
	}

	var err error
	if sched.Start, err = model.ParseClock(d.Start); err != nil {
		return sched, err
	}
	if sched.End, err = model.ParseClock(d.End); err != nil {
		return sched, err
	}
	if d.BreakStart != "" {
		bs, err := model.ParseClock(d.BreakStart)
		if err != nil {
			return sched, err
		}
		be, err := model.ParseClock(d.BreakEnd)
		if err != nil {
			return sched, err
		}
		sched.BreakStart = &bs
		sched.BreakEnd = &be
	}
	return sched, nil
}

// ReminderLead returns the configured reminder lead time.
func (c ReminderConfig) ReminderLead() time.Duration {
	if c.LeadHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.LeadHours) * time.Hour
}

// Interval returns the reminder scan interval.
func (c ReminderConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
