package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/squadopt/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SQUADOPT_BUDGET", "95.5")
			_ = os.Setenv("SQUADOPT_MAX_PER_CLUB", "2")
			_ = os.Setenv("SQUADOPT_WORKER_COUNT", "16")
			_ = os.Setenv("SQUADOPT_QUEUE_SIZE", "64")
			_ = os.Setenv("SQUADOPT_REQUEST_TIMEOUT_MS", "1500")
			_ = os.Setenv("SQUADOPT_PRESOLVE", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Budget, convey.ShouldEqual, 95.5)
				convey.So(cfg.MaxPerClub, convey.ShouldEqual, 2)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.Presolve, convey.ShouldBeFalse)
				convey.So(cfg.NodeLimit, convey.ShouldEqual, 100_000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
log_level: debug
budget: 90
max_per_club: 4
node_limit: 5000
lp_tolerance: 0.0000001
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SQUADOPT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Budget, convey.ShouldEqual, 90.0)
				convey.So(cfg.MaxPerClub, convey.ShouldEqual, 4)
				convey.So(cfg.NodeLimit, convey.ShouldEqual, 5000)
				convey.So(cfg.LPTolerance, convey.ShouldEqual, 1e-7)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
budget: 90
max_per_club: 4
worker_count: 3
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SQUADOPT_CONFIG", tmpFile)
			_ = os.Setenv("SQUADOPT_BUDGET", "80")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Budget, convey.ShouldEqual, 80.0)  // Overridden by env
				convey.So(cfg.MaxPerClub, convey.ShouldEqual, 4) // From file
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading an explicit file path", func() {
			tmpFile := createTempConfigFile("budget: 70\n")
			defer func() { _ = os.Remove(tmpFile) }()
			clearConfigEnvVars()

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should be used without the env variable", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Budget, convey.ShouldEqual, 70.0)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("budget: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SQUADOPT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SQUADOPT_CONFIG", "/non/existent/squadopt.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SQUADOPT_NODE_LIMIT", "lots")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given values outside their ranges", t, func() {
		ctx := context.Background()

		convey.Convey("When the budget is negative", func() {
			_ = os.Setenv("SQUADOPT_BUDGET", "-5")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the club cap is zero", func() {
			tmpFile := createTempConfigFile("max_per_club: 0\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SQUADOPT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the budget is zero", func() {
			_ = os.Setenv("SQUADOPT_BUDGET", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Budget, convey.ShouldEqual, 0.0)
			})
		})

		convey.Convey("When the YAML file has comments", func() {
			tmpFile := createTempConfigFile(`
# tighter club cap for a draft league
max_per_club: 2 # two per club
presolve: false
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SQUADOPT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxPerClub, convey.ShouldEqual, 2)
				convey.So(cfg.Presolve, convey.ShouldBeFalse)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SQUADOPT_CONFIG",
		"SQUADOPT_LOG_LEVEL",
		"SQUADOPT_BUDGET",
		"SQUADOPT_MAX_PER_CLUB",
		"SQUADOPT_WORKER_COUNT",
		"SQUADOPT_QUEUE_SIZE",
		"SQUADOPT_REQUEST_TIMEOUT_MS",
		"SQUADOPT_NODE_LIMIT",
		"SQUADOPT_LP_TOLERANCE",
		"SQUADOPT_PRESOLVE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "squadopt-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
