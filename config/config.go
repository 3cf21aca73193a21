// Package config - Export settings loaded from a YAML file, CITYSCAPES_*
// environment variables and command line flags, in rising priority.
package config

import (
	"math"
	"runtime"
	"strings"

	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/nvr-ai/go-cityscapes/contour"
	"github.com/nvr-ai/go-cityscapes/logging"
	"github.com/nvr-ai/go-cityscapes/split"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CITYSCAPES_OUTPUT_DIR.
const EnvPrefix = "CITYSCAPES"

// Settings holds everything an export run needs.
type Settings struct {
	Project struct {
		Dir string // local project directory with meta.json and one directory per dataset
	}

	Output struct {
		Dir     string // result directory, receives leftImg8bit/ gtFine/ and class_to_id.json
		Archive string // optional tar.gz of the result directory
	}

	Split struct {
		TrainRatio float64 // train share of untagged images
	}

	Workers     int      // images converted in parallel
	HoleClasses []string // classes whose polygons keep their holes

	Log struct {
		Level  string // trace, debug, info, warn, error
		Format string // text or json
	}

	Metrics struct {
		Textfile string // optional node-exporter textfile written after the run
	}
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"project":          "project.dir",
	"output":           "output.dir",
	"archive":          "output.archive",
	"train-ratio":      "split.trainratio",
	"workers":          "workers",
	"hole-classes":     "holeclasses",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"metrics-textfile": "metrics.textfile",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.dir", "")
	v.SetDefault("output.dir", "cityscapes_format")
	v.SetDefault("output.archive", "")
	v.SetDefault("split.trainratio", split.DefaultTrainRatio)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("holeclasses", []string{contour.OutOfROI})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("metrics.textfile", "")
}

// SetupFlags defines the export flags on fs and binds them to v.
//
// Arguments:
//   - fs: The flag set of the export command.
//   - v: The viper instance later passed to Load.
//
// Returns:
//   - error: If a flag cannot be bound.
func SetupFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.StringP("project", "p", "", "Path to the local project directory")
	fs.StringP("output", "o", "cityscapes_format", "Path to the result directory")
	fs.String("archive", "", "Write a tar.gz of the result directory to this path")
	fs.Float64("train-ratio", split.DefaultTrainRatio, "Train share of images without a split tag, between 0 and 1")
	fs.IntP("workers", "w", runtime.NumCPU(), "Number of images converted in parallel")
	fs.StringSlice("hole-classes", []string{contour.OutOfROI}, "Classes whose polygons keep their holes")
	fs.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	fs.String("log-format", logging.FormatText, "Log format: text or json")
	fs.String("metrics-textfile", "", "Write run metrics to this node-exporter textfile")

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

// Load reads the settings into a new Settings and validates them.
//
// Arguments:
//   - v: The viper instance, with flags already bound.
//   - file: Optional config file. When empty, cityscapes.yaml is looked up in
//     the working directory and skipped if absent.
//
// Returns:
//   - *Settings: The validated settings.
//   - error: A read error, or a *annotation.ConfigurationError.
func Load(v *viper.Viper, file string) (*Settings, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	} else {
		v.SetConfigName("cityscapes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks every field and reports the first invalid one.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Project.Dir) == "" {
		return annotation.NewConfigurationError("project.dir", "is required")
	}
	if strings.TrimSpace(s.Output.Dir) == "" {
		return annotation.NewConfigurationError("output.dir", "is required")
	}
	if r := s.Split.TrainRatio; math.IsNaN(r) || r < 0 || r > 1 {
		return annotation.NewConfigurationError("split.trainratio", "%v is outside [0, 1]", r)
	}
	if s.Workers < 1 {
		return annotation.NewConfigurationError("workers", "must be at least 1, got %d", s.Workers)
	}
	for _, name := range s.HoleClasses {
		if strings.TrimSpace(name) == "" {
			return annotation.NewConfigurationError("holeclasses", "contains an empty class name")
		}
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return annotation.NewConfigurationError("log.level", "%v", err)
	}
	switch strings.ToLower(s.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return annotation.NewConfigurationError("log.format", "%q is not text or json", s.Log.Format)
	}
	return nil
}
