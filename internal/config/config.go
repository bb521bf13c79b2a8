package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config carries every path and knob the harness needs. Components receive it
// explicitly; nothing reads the process working directory on its own.
type Config struct {
	// Workspace is the root directory of a benchmark workspace. Projects,
	// logs and results all live underneath it unless overridden.
	Workspace string

	// ProjectsDir holds the cloned corpus, one project per subdirectory.
	ProjectsDir string

	// LogsDir receives raw compiler output, corpus metadata and run logs.
	LogsDir string

	// ResultsFile is where the final JSON result set is written.
	ResultsFile string

	// ReposFile lists the corpus repositories, one owner/name per line.
	ReposFile string

	// MaxDepth bounds the recursive tsconfig search inside a project.
	MaxDepth int

	// MaxOldSpaceMB is passed to node via NODE_OPTIONS for every compile.
	MaxOldSpaceMB int

	// SkipInstall disables the dependency-install stage.
	SkipInstall bool

	// MetricsPort exposes prometheus metrics when > 0.
	MetricsPort int

	// HistoryBackend selects the run-history store ("sqlite", "postgres"
	// or "" to disable); HistoryDSN is its connection string.
	HistoryBackend string
	HistoryDSN     string

	// Slack notification settings for sweep completion.
	SlackEnabled bool
	SlackChannel string

	Verbose bool
	LogFile string
}

// BindFlags connects command-line flags to their viper keys.
func BindFlags(fs *pflag.FlagSet) {
	for flag, key := range map[string]string{
		"workspace":    "workspace",
		"projects":     "projects_dir",
		"logs":         "logs_dir",
		"out":          "results_file",
		"depth":        "max_depth",
		"max-memory":   "max_old_space_mb",
		"skip-install": "skip_install",
	} {
		if f := fs.Lookup(flag); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

// Load reads config.yaml (or cfgFile if given), the environment and .env,
// and resolves everything into an absolute-path Config.
func Load(cfgFile string) (*Config, error) {
	// explicit .env loading; a missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TSBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	return fromViper()
}

func setDefaults() {
	viper.SetDefault("workspace", ".")
	viper.SetDefault("max_depth", 4)
	viper.SetDefault("max_old_space_mb", 8192)
	viper.SetDefault("skip_install", false)
	viper.SetDefault("metrics_port", 0)
	viper.SetDefault("history.backend", "sqlite")
	viper.SetDefault("history.dsn", "")
	viper.SetDefault("repos_file", "repos.txt")

	slackEnabled := os.Getenv("SLACK_BOT_USER_TOKEN") != "" || os.Getenv("SLACK_WEBHOOK_URL") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#benchmarks")
}

func fromViper() (*Config, error) {
	ws, err := filepath.Abs(viper.GetString("workspace"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	cfg := &Config{
		Workspace:      ws,
		ProjectsDir:    viper.GetString("projects_dir"),
		LogsDir:        viper.GetString("logs_dir"),
		ResultsFile:    viper.GetString("results_file"),
		ReposFile:      viper.GetString("repos_file"),
		MaxDepth:       viper.GetInt("max_depth"),
		MaxOldSpaceMB:  viper.GetInt("max_old_space_mb"),
		SkipInstall:    viper.GetBool("skip_install"),
		MetricsPort:    viper.GetInt("metrics_port"),
		HistoryBackend: viper.GetString("history.backend"),
		HistoryDSN:     viper.GetString("history.dsn"),
		SlackEnabled:   viper.GetBool("notifications.slack.enabled"),
		SlackChannel:   viper.GetString("notifications.slack.channel"),
		Verbose:        viper.GetBool("verbose"),
		LogFile:        viper.GetString("log_file"),
	}

	if cfg.ProjectsDir == "" {
		cfg.ProjectsDir = filepath.Join(ws, "projects")
	} else if !filepath.IsAbs(cfg.ProjectsDir) {
		cfg.ProjectsDir = filepath.Join(ws, cfg.ProjectsDir)
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = filepath.Join(ws, "logs")
	} else if !filepath.IsAbs(cfg.LogsDir) {
		cfg.LogsDir = filepath.Join(ws, cfg.LogsDir)
	}
	if cfg.ResultsFile == "" {
		cfg.ResultsFile = filepath.Join(cfg.LogsDir, "results.json")
	} else if !filepath.IsAbs(cfg.ResultsFile) {
		cfg.ResultsFile = filepath.Join(ws, cfg.ResultsFile)
	}
	if !filepath.IsAbs(cfg.ReposFile) {
		cfg.ReposFile = filepath.Join(ws, cfg.ReposFile)
	}
	if cfg.HistoryDSN == "" && strings.EqualFold(cfg.HistoryBackend, "sqlite") {
		cfg.HistoryDSN = filepath.Join(cfg.LogsDir, "history.db")
	}

	return cfg, nil
}

// EnsureDirs creates the directories a run writes into.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ProjectsDir, c.LogsDir, filepath.Dir(c.ResultsFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
