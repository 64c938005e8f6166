// Package innerselfcmder
package innerselfcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/innerself/cmd/innerself/auth"
	brainscmder "github.com/papercomputeco/innerself/cmd/innerself/brains"
	configcmder "github.com/papercomputeco/innerself/cmd/innerself/config"
	contextcmder "github.com/papercomputeco/innerself/cmd/innerself/context"
	eventcmder "github.com/papercomputeco/innerself/cmd/innerself/event"
	servecmder "github.com/papercomputeco/innerself/cmd/innerself/serve"
	versioncmder "github.com/papercomputeco/innerself/cmd/version"
)

const innerselfLongDesc string = `innerself gives chat characters an inner life.

It tracks the thoughts, memories, goals, secrets, and opinions of every
character in a conversation and renders them into a compact context block
for the next prompt.

Run the server with:
  innerself serve

Inspect a running server with:
  innerself brains           List tracked minds
  innerself context <name>   Print the context for a character
  innerself event ...        Feed a chat event to the server`

const innerselfShortDesc string = "innerself - inner thoughts for chat characters"

func NewInnerSelfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "innerself",
		Short:        innerselfShortDesc,
		Long:         innerselfLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .innerself/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(brainscmder.NewBrainsCmd())
	cmd.AddCommand(contextcmder.NewContextCmd())
	cmd.AddCommand(eventcmder.NewEventCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
