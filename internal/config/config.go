package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Attendance Attendance `mapstructure:"attendance"`
	Report     Report     `mapstructure:"report"`
	Signal     Signal     `mapstructure:"signal"`
}

type Attendance struct {
	// IncludeSelf keeps the room owner's own records in the report.
	IncludeSelf bool `mapstructure:"include_self"`
	// SelfJoinImplicit records the owner's join when the room opens.
	SelfJoinImplicit bool `mapstructure:"self_join_implicit"`
	// EventBuffer is the per-room presence queue length.
	EventBuffer int `mapstructure:"event_buffer"`
}

type Report struct {
	Dir        string `mapstructure:"dir"`
	TimeLayout string `mapstructure:"time_layout"`
	Timezone   string `mapstructure:"timezone"`
}

type Signal struct {
	JoinLimit    int           `mapstructure:"join_limit"`
	JoinInterval time.Duration `mapstructure:"join_interval"`
	// SlowStrikes is how many dropped frames a member survives before a kick.
	SlowStrikes int `mapstructure:"slow_strikes"`
}

// Location resolves Report.Timezone; empty means the server's local zone.
func (r Report) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName on top of the defaults. A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("attendance.include_self", true)
	v.SetDefault("attendance.self_join_implicit", false)
	v.SetDefault("attendance.event_buffer", 64)
	v.SetDefault("report.dir", "./reports")
	v.SetDefault("report.time_layout", "1/2/2006, 3:04:05 PM")
	v.SetDefault("report.timezone", "")
	v.SetDefault("signal.join_limit", 5)
	v.SetDefault("signal.join_interval", "10s")
	v.SetDefault("signal.slow_strikes", 3)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Report.Location(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}
