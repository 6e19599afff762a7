package root

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bear-san/coffee-shop/internal/environment"
)

type envOutput struct {
	Build       string             `json:"build"       yaml:"build"`
	Environment environment.Config `json:"environment" yaml:"environment"`
}

func newEnvCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := envOutput{Build: environment.BuildMode, Environment: a.env}

			switch format {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(out); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			default:
				return fmt.Errorf("unknown output format %q (want yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}
