// Package contextcmder provides the context command that prints the prompt
// fragment a running server would inject for a character.
package contextcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/innerself/pkg/cliui"
	"github.com/papercomputeco/innerself/pkg/client"
)

const contextLongDesc string = `Print the rendered inner context for a character.

The output is exactly what a chat frontend would inject into the prompt:
recent inner thoughts, active goals, and recent secrets. Characters the
server has never seen print nothing.

Examples:
  innerself context Alice
  innerself context "Mary Ann" --api-target http://localhost:8082`

const contextShortDesc string = "Print the rendered context for a character"

func NewContextCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "context <name>",
		Short: contextShortDesc,
		Long:  contextLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			cl, err := client.FromConfig(configDir, apiTarget)
			if err != nil {
				return err
			}

			text, err := cl.Context(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if text == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s No context for %s\n",
					cliui.DimStyle.Render("●"), cliui.NameStyle.Render(args[0]))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiTarget, "api-target", "", "innerself API server URL (default: from api.listen)")

	return cmd
}
