package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcadekeep/arcadekeep/internal/config"
)

func TestBuildLogger_Default(t *testing.T) {
	logger := buildLogger(nil)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildLogger_ConfigDebug(t *testing.T) {
	cfg := &config.ResolvedConfig{LogLevel: "debug"}

	logger := buildLogger(cfg)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_VerboseOverridesConfig(t *testing.T) {
	flagVerbose = true
	defer func() { flagVerbose = false }()

	cfg := &config.ResolvedConfig{LogLevel: "error"}
	logger := buildLogger(cfg)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestBuildLogger_QuietOverridesConfig(t *testing.T) {
	flagQuiet = true
	defer func() { flagQuiet = false }()

	logger := buildLogger(nil)

	assert.True(t, logger.Handler().Enabled(context.Background(), slog.LevelError))
	assert.False(t, logger.Handler().Enabled(context.Background(), slog.LevelWarn))
}

func TestCliContextFrom_NilContext(t *testing.T) {
	cc := cliContextFrom(context.Background())
	assert.Nil(t, cc)
}

func TestCliContextFrom_WithCLIContext(t *testing.T) {
	expected := &CLIContext{
		Cfg:    &config.ResolvedConfig{CollectionRoot: "/collection"},
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	ctx := context.WithValue(context.Background(), cliContextKey{}, expected)

	cc := cliContextFrom(ctx)
	assert.Same(t, expected, cc)
	assert.Equal(t, "/collection", cc.Cfg.CollectionRoot)
}

func TestMustCLIContext_Panics(t *testing.T) {
	assert.Panics(t, func() { mustCLIContext(context.Background()) })
}

func TestMustCLIContext_Returns(t *testing.T) {
	expected := &CLIContext{Cfg: &config.ResolvedConfig{CollectionRoot: "/must-test"}}
	ctx := context.WithValue(context.Background(), cliContextKey{}, expected)

	cc := mustCLIContext(ctx)
	assert.Same(t, expected, cc)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	expected := []string{"import", "export", "sync", "status", "delete", "migrate-types", "mass-import"}
	for _, name := range expected {
		found := false

		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		assert.True(t, found, "expected subcommand %q not found", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "collection-root", "bucket", "json", "verbose", "debug", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "expected persistent flag %q not found", name)
	}
}

func TestNewRootCmd_MutualExclusivity(t *testing.T) {
	pairs := [][]string{
		{"--verbose", "--debug"},
		{"--verbose", "--quiet"},
		{"--debug", "--quiet"},
	}

	for _, flags := range pairs {
		t.Run(flags[0]+"_"+flags[1], func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs(append(append([]string{}, flags...), "status"))

			err := cmd.Execute()
			assert.Error(t, err)
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(assert.AnError))
}
