package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
)

const exampleRoutes = `routes:
  - method: GET
    path: /health
    status: 200
    headers:
      Content-Type: application/json
    body: '{"status": "ok"}'

  - method: GET
    path: /users/{{id}}
    status: 200
    headers:
      Content-Type: application/json
    body: '{"id": "{{id}}", "name": "Test User"}'

  - method: POST
    path: /users
    status: 201
    headers:
      Content-Type: application/json
    body: '{"id": "42"}'

  - method: GET
    path: /slow
    delay: 2s
    body: 'finally'
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and example stub routes",
		Long: `Initialize hitreq in the current directory.

This creates:
  - .hitreq.yaml  - Configuration file
  - routes.yaml   - Example routes for 'hitreq stub'

Examples:
  hitreq init
  hitreq init --force`,
		Args: usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			return initProject(cmd, cwd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	configFile := filepath.Join(dir, ".hitreq.yaml")
	routesFile := filepath.Join(dir, "routes.yaml")

	if !force {
		for _, f := range []string{configFile, routesFile} {
			if _, err := os.Stat(f); err == nil {
				return usageErrorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "hitreq/" + version,
	}
	cfg.RequestIDHeader = "X-Request-Id"
	cfg.History = "sqlite://.hitreq-history.db"

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(routesFile, []byte(exampleRoutes), 0644); err != nil {
		return fmt.Errorf("failed to create routes file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", routesFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitreq initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitreq stub routes.yaml' and then 'hitreq get http://localhost:3000/health'.\n")

	return nil
}
