// Package eventcmder provides the event command that feeds a chat event to a
// running innerself server.
package eventcmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/innerself/pkg/cliui"
	"github.com/papercomputeco/innerself/pkg/client"
	"github.com/papercomputeco/innerself/pkg/innerself"
)

const eventLongDesc string = `Send a chat event to a running innerself server.

Arguments are <name> <text> pairs in conversation order. The server only
reacts to the last message, and needs at least one message before it for
context. The last message may form an inner thought and is always recorded
as a memory.

Examples:
  innerself event Narrator "The lights go out." Alice "Who's there?"
  innerself event Alice "Hello?" You "It's me." --user`

const eventShortDesc string = "Send a chat event to the server"

type eventCommander struct {
	apiTarget string
	user      bool
}

func NewEventCmd() *cobra.Command {
	cmder := &eventCommander{}

	cmd := &cobra.Command{
		Use:   "event <name> <text> <name> <text>...",
		Short: eventShortDesc,
		Long:  eventLongDesc,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 4 || len(args)%2 != 0 {
				return errors.New("expected at least two <name> <text> pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			cl, err := client.FromConfig(configDir, cmder.apiTarget)
			if err != nil {
				return err
			}

			res, err := cl.SendEvent(cmd.Context(), cmder.buildEvent(args))
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "", "innerself API server URL (default: from api.listen)")
	cmd.Flags().BoolVar(&cmder.user, "user", false, "Mark the last message as written by the user")

	return cmd
}

func (c *eventCommander) buildEvent(args []string) innerself.Event {
	msgs := make([]innerself.Message, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		msgs = append(msgs, innerself.Message{Name: args[i], Text: args[i+1]})
	}
	msgs[len(msgs)-1].IsUser = c.user

	return innerself.Event{Messages: msgs}
}

func printResult(w io.Writer, res *innerself.Result) {
	if !res.Handled {
		fmt.Fprintf(w, "  %s Ignored %s\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render("("+res.Reason+")"))
		return
	}

	fmt.Fprintf(w, "  %s Remembered for %s\n", cliui.SuccessMark, cliui.NameStyle.Render(res.Name))
	if res.Thought != "" {
		fmt.Fprintf(w, "    %s\n", cliui.ValueStyle.Render(res.Thought))
	} else if res.Reason != "" {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render("no thought: "+res.Reason))
	}
	if res.Compressed {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render("memories compressed"))
	}
}
