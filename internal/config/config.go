// Package config loads sleepstat run settings from defaults, a YAML file and
// SLEEPSTAT_* environment variables.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/sleepstat/linear"
	"github.com/YuminosukeSato/sleepstat/pipeline"
	"github.com/YuminosukeSato/sleepstat/prediction"
	"github.com/YuminosukeSato/sleepstat/report"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. SLEEPSTAT_GRID_POINTS.
const EnvPrefix = "SLEEPSTAT"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "sleepstat.yaml"

// Columns names the input column of every analysis role.
type Columns struct {
	Quality   string `mapstructure:"quality" yaml:"quality"`
	Stress    string `mapstructure:"stress" yaml:"stress"`
	Activity  string `mapstructure:"activity" yaml:"activity"`
	Duration  string `mapstructure:"duration" yaml:"duration"`
	Age       string `mapstructure:"age" yaml:"age"`
	HeartRate string `mapstructure:"heart_rate" yaml:"heart_rate"`
	Disorder  string `mapstructure:"disorder" yaml:"disorder"`
}

type Grid struct {
	Points      int    `mapstructure:"points" yaml:"points"`
	Vary        string `mapstructure:"vary" yaml:"vary"`
	FixedPolicy string `mapstructure:"fixed_policy" yaml:"fixed_policy"`
}

type MNLogit struct {
	Solver  string  `mapstructure:"solver" yaml:"solver"`
	MaxIter int     `mapstructure:"max_iter" yaml:"max_iter"`
	Tol     float64 `mapstructure:"tol" yaml:"tol"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Output struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Compress string `mapstructure:"compress" yaml:"compress"`
	Plots    bool   `mapstructure:"plots" yaml:"plots"`
}

// Config is the full run configuration.
type Config struct {
	Columns  Columns `mapstructure:"columns" yaml:"columns"`
	IDColumn string  `mapstructure:"id_column" yaml:"id_column"`
	Grid     Grid    `mapstructure:"grid" yaml:"grid"`
	MNLogit  MNLogit `mapstructure:"mnlogit" yaml:"mnlogit"`
	Log      Log     `mapstructure:"log" yaml:"log"`
	Output   Output  `mapstructure:"output" yaml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	pc := pipeline.DefaultConfig()
	c := pc.Columns
	return &Config{
		Columns: Columns{
			Quality:   c.Quality,
			Stress:    c.Stress,
			Activity:  c.Activity,
			Duration:  c.Duration,
			Age:       c.Age,
			HeartRate: c.HeartRate,
			Disorder:  c.Disorder,
		},
		IDColumn: c.ID,
		Grid:     Grid{Points: pc.GridPoints, Vary: c.Stress, FixedPolicy: pc.GridFixed.String()},
		MNLogit:  MNLogit{Solver: string(pc.Solver), MaxIter: pc.MaxIter, Tol: pc.Tol},
		Log:      Log{Level: "info", Format: "console"},
		Output:   Output{Dir: "output", Compress: string(report.CompressNone), Plots: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("columns.quality", d.Columns.Quality)
	v.SetDefault("columns.stress", d.Columns.Stress)
	v.SetDefault("columns.activity", d.Columns.Activity)
	v.SetDefault("columns.duration", d.Columns.Duration)
	v.SetDefault("columns.age", d.Columns.Age)
	v.SetDefault("columns.heart_rate", d.Columns.HeartRate)
	v.SetDefault("columns.disorder", d.Columns.Disorder)
	v.SetDefault("id_column", d.IDColumn)
	v.SetDefault("grid.points", d.Grid.Points)
	v.SetDefault("grid.vary", d.Grid.Vary)
	v.SetDefault("grid.fixed_policy", d.Grid.FixedPolicy)
	v.SetDefault("mnlogit.solver", d.MNLogit.Solver)
	v.SetDefault("mnlogit.max_iter", d.MNLogit.MaxIter)
	v.SetDefault("mnlogit.tol", d.MNLogit.Tol)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.compress", d.Output.Compress)
	v.SetDefault("output.plots", d.Output.Plots)
}

// Load reads the configuration. Precedence: env > config file > defaults.
// An explicit cfgFile must exist; the implicit sleepstat.yaml is optional.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the enumerated and numeric settings.
func (c *Config) Validate() error {
	if _, err := linear.ParseSolver(c.MNLogit.Solver); err != nil {
		return err
	}
	if _, err := prediction.ParsePolicy(c.Grid.FixedPolicy); err != nil {
		return err
	}
	if _, err := report.ParseCompression(c.Output.Compress); err != nil {
		return err
	}
	if c.Grid.Points < 2 {
		return errors.NewValidationError("grid.points", "must be at least 2", c.Grid.Points)
	}
	if c.MNLogit.MaxIter <= 0 {
		return errors.NewValidationError("mnlogit.max_iter", "must be positive", c.MNLogit.MaxIter)
	}
	if c.MNLogit.Tol <= 0 {
		return errors.NewValidationError("mnlogit.tol", "must be positive", c.MNLogit.Tol)
	}
	return nil
}

// Pipeline converts c into pipeline settings. The logger is left unset.
func (c *Config) Pipeline() (pipeline.Config, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	solver, _ := linear.ParseSolver(c.MNLogit.Solver)
	policy, _ := prediction.ParsePolicy(c.Grid.FixedPolicy)
	return pipeline.Config{
		Columns: pipeline.Columns{
			Quality:   c.Columns.Quality,
			Stress:    c.Columns.Stress,
			Activity:  c.Columns.Activity,
			Duration:  c.Columns.Duration,
			Age:       c.Columns.Age,
			HeartRate: c.Columns.HeartRate,
			Disorder:  c.Columns.Disorder,
			ID:        c.IDColumn,
		},
		GridPoints: c.Grid.Points,
		GridVary:   c.Grid.Vary,
		GridFixed:  policy,
		Solver:     solver,
		MaxIter:    c.MNLogit.MaxIter,
		Tol:        c.MNLogit.Tol,
	}, nil
}

// Save writes c as YAML to path.
func Save(c *Config, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}
