package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// askOneFunc wraps survey for mocking in tests.
var askOneFunc = survey.AskOne

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively scaffold a benchmark workspace",
	Long: `Creates a workspace directory with a config.yaml and an empty repos.txt.
Add one owner/name per line to repos.txt, then freeze, fetch and run.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	answers := struct {
		Workspace   string
		MaxMemory   int
		MetricsPort int
		Slack       bool
		Channel     string
	}{}

	if err := askOneFunc(&survey.Input{
		Message: "Workspace directory:",
		Default: ".",
	}, &answers.Workspace); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Input{
		Message: "Node heap cap for compiles (MB):",
		Default: "8192",
	}, &answers.MaxMemory); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Input{
		Message: "Prometheus metrics port (0 to disable):",
		Default: "0",
	}, &answers.MetricsPort); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Confirm{
		Message: "Send Slack notifications when sweeps finish?",
		Default: false,
	}, &answers.Slack); err != nil {
		return err
	}
	if answers.Slack {
		if err := askOneFunc(&survey.Input{
			Message: "Slack channel:",
			Default: "#benchmarks",
		}, &answers.Channel); err != nil {
			return err
		}
	}

	ws, err := filepath.Abs(answers.Workspace)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	if err := os.MkdirAll(ws, 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	cfgYAML := fmt.Sprintf(`workspace: %s
max_depth: 4
max_old_space_mb: %d
metrics_port: %d
history:
  backend: sqlite
notifications:
  slack:
    enabled: %t
    channel: "%s"
`, ws, answers.MaxMemory, answers.MetricsPort, answers.Slack, orDefault(answers.Channel, "#benchmarks"))

	cfgPath := filepath.Join(ws, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	reposPath := filepath.Join(ws, "repos.txt")
	if _, err := os.Stat(reposPath); os.IsNotExist(err) {
		header := "# One GitHub repository per line, owner/name.\n"
		if err := os.WriteFile(reposPath, []byte(header), 0644); err != nil {
			return fmt.Errorf("failed to write repos.txt: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Workspace ready at %s\n", ws)
	fmt.Fprintln(cmd.OutOrStdout(), "Next: add repositories to repos.txt, then 'tsbench freeze', 'tsbench fetch', 'tsbench run'.")
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
