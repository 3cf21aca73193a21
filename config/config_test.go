package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nvr-ai/go-cityscapes/annotation"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cityscapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CITYSCAPES_PROJECT_DIR", "/data/project")

	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/data/project", s.Project.Dir)
	assert.Equal(t, "cityscapes_format", s.Output.Dir)
	assert.Empty(t, s.Output.Archive)
	assert.InDelta(t, 0.6, s.Split.TrainRatio, 1e-9)
	assert.Equal(t, runtime.NumCPU(), s.Workers)
	assert.Equal(t, []string{"out of roi"}, s.HoleClasses)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
}

func TestLoadFileThenEnvThenFlags(t *testing.T) {
	path := writeConfig(t, `
project:
  dir: /from/file
output:
  dir: /out/file
  archive: /out/Cityscapes.tar.gz
split:
  trainratio: 0.8
workers: 3
holeclasses: ["out of roi", "void"]
log:
  level: debug
  format: json
`)
	t.Setenv("CITYSCAPES_OUTPUT_DIR", "/out/env")
	t.Setenv("CITYSCAPES_WORKERS", "5")

	v := viper.New()
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	require.NoError(t, SetupFlags(fs, v))
	require.NoError(t, fs.Parse([]string{"--workers", "7"}))

	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "/from/file", s.Project.Dir)
	assert.Equal(t, "/out/env", s.Output.Dir)
	assert.Equal(t, "/out/Cityscapes.tar.gz", s.Output.Archive)
	assert.InDelta(t, 0.8, s.Split.TrainRatio, 1e-9)
	assert.Equal(t, 7, s.Workers)
	assert.Equal(t, []string{"out of roi", "void"}, s.HoleClasses)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		var s Settings
		s.Project.Dir = "/p"
		s.Output.Dir = "/o"
		s.Split.TrainRatio = 0.6
		s.Workers = 2
		s.HoleClasses = []string{"out of roi"}
		s.Log.Level = "info"
		s.Log.Format = "text"
		return s
	}

	tests := []struct {
		name   string
		mutate func(s *Settings)
		field  string
	}{
		{"missing project", func(s *Settings) { s.Project.Dir = " " }, "project.dir"},
		{"missing output", func(s *Settings) { s.Output.Dir = "" }, "output.dir"},
		{"ratio above one", func(s *Settings) { s.Split.TrainRatio = 1.5 }, "split.trainratio"},
		{"negative ratio", func(s *Settings) { s.Split.TrainRatio = -0.1 }, "split.trainratio"},
		{"no workers", func(s *Settings) { s.Workers = 0 }, "workers"},
		{"empty hole class", func(s *Settings) { s.HoleClasses = []string{""} }, "holeclasses"},
		{"bad level", func(s *Settings) { s.Log.Level = "loud" }, "log.level"},
		{"bad format", func(s *Settings) { s.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			var cfgErr *annotation.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	s := valid()
	assert.NoError(t, s.Validate())
}
