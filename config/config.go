// Package config loads digital output sessions from configuration files.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"pipelined.dev/digital"
	"pipelined.dev/digital/driver"
	"pipelined.dev/digital/log"
	"pipelined.dev/digital/run"
)

// EnvPrefix is the prefix of environment variables that override
// configuration keys. DIGITAL_CLOCK_RATE overrides clock.rate.
const EnvPrefix = "DIGITAL"

// Mode names.
const (
	OnDemand = "ondemand"
	Clocked  = "clocked"
)

type (
	// Raw is the configuration as it's stored in the file.
	Raw struct {
		Task     string       `mapstructure:"task"`
		Channels []RawChannel `mapstructure:"channels"`
		Mode     string       `mapstructure:"mode"`
		Clock    RawClock     `mapstructure:"clock"`
		Log      RawLog       `mapstructure:"log"`
	}

	// RawChannel is a single channel entry.
	RawChannel struct {
		Name     string `mapstructure:"name"`
		Lines    string `mapstructure:"lines"`
		Grouping string `mapstructure:"grouping"`
	}

	// RawClock holds sample clock parameters. They are used only in
	// clocked mode.
	RawClock struct {
		Source   string  `mapstructure:"source"`
		Rate     float64 `mapstructure:"rate"`
		Edge     string  `mapstructure:"edge"`
		Quantity string  `mapstructure:"quantity"`
		Buffer   int     `mapstructure:"buffer"`
	}

	// RawLog configures session logging. Empty file means stderr.
	RawLog struct {
		Debug      bool   `mapstructure:"debug"`
		File       string `mapstructure:"file"`
		MaxSize    int    `mapstructure:"maxsize"`
		MaxBackups int    `mapstructure:"maxbackups"`
		MaxAge     int    `mapstructure:"maxage"`
		Compress   bool   `mapstructure:"compress"`
	}

	// Config is a validated configuration. It must not be modified after
	// it was loaded.
	Config struct {
		TaskName string
		Channels digital.Channels
		Mode     digital.Mode
		Debug    bool
		LogFile  log.File
	}
)

// Load reads configuration from the file. Keys missing in the file take
// default values. Empty path means that only defaults and environment
// are used.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %w", digital.ErrConfiguration, path, err)
		}
	}
	var raw Raw
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("%w: decode %s: %w", digital.ErrConfiguration, path, err)
	}
	return raw.Config()
}

// Default returns the default configuration.
func Default() Config {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("task", "")
	v.SetDefault("channels", []map[string]interface{}{
		{"lines": "Dev1/port0", "grouping": "perline"},
	})
	v.SetDefault("mode", OnDemand)
	v.SetDefault("clock.source", "")
	v.SetDefault("clock.rate", digital.DefaultSampleRate)
	v.SetDefault("clock.edge", "rising")
	v.SetDefault("clock.quantity", "continuous")
	v.SetDefault("clock.buffer", digital.DefaultBufferSize)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsize", 10)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxage", 28)
	v.SetDefault("log.compress", false)
}

// Config converts raw values into validated configuration.
func (r Raw) Config() (Config, error) {
	channels := make(digital.Channels, 0, len(r.Channels))
	for i, rc := range r.Channels {
		g, err := digital.ParseGrouping(rc.Grouping)
		if err != nil {
			return Config{}, fmt.Errorf("channel %d: %w", i, err)
		}
		channels = append(channels, digital.Channel{
			Name:     rc.Name,
			Lines:    rc.Lines,
			Grouping: g,
		})
	}
	if err := channels.Validate(); err != nil {
		return Config{}, err
	}
	mode, err := r.mode()
	if err != nil {
		return Config{}, err
	}
	return Config{
		TaskName: r.Task,
		Channels: channels,
		Mode:     mode,
		Debug:    r.Log.Debug,
		LogFile: log.File{
			Path:       r.Log.File,
			MaxSize:    r.Log.MaxSize,
			MaxBackups: r.Log.MaxBackups,
			MaxAge:     r.Log.MaxAge,
			Compress:   r.Log.Compress,
		},
	}, nil
}

func (r Raw) mode() (digital.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(r.Mode)) {
	case "", OnDemand, "on-demand":
		return digital.OnDemand{}, nil
	case Clocked:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", digital.ErrConfiguration, r.Mode)
	}
	edge, err := digital.ParseEdge(r.Clock.Edge)
	if err != nil {
		return nil, err
	}
	quantity, err := digital.ParseQuantityMode(r.Clock.Quantity)
	if err != nil {
		return nil, err
	}
	c := digital.Clocked{
		SignalSource: r.Clock.Source,
		SampleRate:   r.Clock.Rate,
		ActiveEdge:   edge,
		QuantityMode: quantity,
		BufferSize:   r.Clock.Buffer,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Pipeline returns a pipeline for the driver. Channels of configuration
// are used as static channels.
func (c Config) Pipeline(d driver.Driver, l logrus.FieldLogger) run.Pipeline {
	return run.Pipeline{
		Driver:   d,
		TaskName: c.TaskName,
		Channels: c.Channels,
		Mode:     c.Mode,
		Logger:   l,
	}
}

// Logger returns a logger configured by the log section. Returned
// closer must be closed when the logger is not used anymore.
func (c Config) Logger() (*logrus.Logger, io.Closer) {
	l := log.GetLogger()
	if c.Debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if c.LogFile.Path == "" {
		return l, nopCloser{}
	}
	return l, log.WithFile(l, c.LogFile)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
