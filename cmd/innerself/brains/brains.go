// Package brainscmder provides the brains command for inspecting and
// clearing the minds tracked by a running innerself server.
package brainscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/innerself/pkg/cliui"
	"github.com/papercomputeco/innerself/pkg/client"
	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/utils"
)

const brainsLongDesc string = `Inspect the minds tracked by a running innerself server.

Without a subcommand, lists every character with counts of their thoughts,
memories, goals, secrets, and opinions.

Examples:
  innerself brains
  innerself brains show Alice
  innerself brains watch
  innerself brains clear "Mary Ann"
  innerself brains save
  innerself brains --api-target http://localhost:8082`

const brainsShortDesc string = "Inspect tracked character minds"

const previewLen = 60

type brainsCommander struct {
	apiTarget string
	configDir string
}

func NewBrainsCmd() *cobra.Command {
	cmder := &brainsCommander{}

	cmd := &cobra.Command{
		Use:   "brains",
		Short: brainsShortDesc,
		Long:  brainsLongDesc,
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVar(&cmder.apiTarget, "api-target", "", "innerself API server URL (default: from api.listen)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show the full mind of a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runShow(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch [name]",
		Short: "Stream new thoughts and memory compressions as they happen",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var character string
			if len(args) == 1 {
				character = args[0]
			}
			return cmder.runWatch(ctx, cmd.OutOrStdout(), character)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <name>",
		Short: "Forget everything about a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runClear(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write a snapshot of every mind to storage now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runSave(cmd.Context(), cmd.OutOrStdout())
		},
	})

	return cmd
}

func (c *brainsCommander) client() (*client.Client, error) {
	return client.FromConfig(c.configDir, c.apiTarget)
}

func (c *brainsCommander) runList(ctx context.Context, w io.Writer) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	out, err := cl.Brains(ctx)
	if err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Fprintf(w, "  %s No minds tracked yet.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Tracked minds"),
		cliui.DimStyle.Render("("+strconv.Itoa(out.Count)+")"),
	)

	for _, b := range out.Brains {
		fmt.Fprintf(w, "  %s  %s\n",
			cliui.NameStyle.Render(b.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%d thoughts, %d memories, %d goals, %d secrets, %d opinions · active %s",
				b.Thoughts, b.Memories, b.Goals, b.Secrets, b.Opinions, b.LastActive.Local().Format(time.DateTime))),
		)
		if b.LatestThought != "" {
			fmt.Fprintf(w, "    %s\n", cliui.ValueStyle.Render(utils.Truncate(b.LatestThought, previewLen)))
		}
	}
	fmt.Fprintln(w)

	return nil
}

func (c *brainsCommander) runShow(ctx context.Context, w io.Writer, name string) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	r, err := cl.Brain(ctx, name)
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("no mind tracked for %q", name)
	}
	if err != nil {
		return err
	}

	// RenderMarkdown hands back the raw markdown when styling fails.
	rendered, _ := cliui.RenderMarkdown(RecordMarkdown(r))
	fmt.Fprint(w, rendered)
	return nil
}

func (c *brainsCommander) runClear(ctx context.Context, w io.Writer, name string) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	err = cliui.Step(w, "Clearing "+cliui.NameStyle.Render(name), func() error {
		return cl.DeleteBrain(ctx, name)
	})
	if errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("no mind tracked for %q", name)
	}
	return err
}

func (c *brainsCommander) runSave(ctx context.Context, w io.Writer) error {
	cl, err := c.client()
	if err != nil {
		return err
	}
	return cliui.Step(w, "Saving snapshot", func() error {
		return cl.Snapshot(ctx)
	})
}

func (c *brainsCommander) runWatch(ctx context.Context, w io.Writer, character string) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Watching %s %s\n\n",
		cliui.DimStyle.Render("●"),
		cl.Target(),
		cliui.DimStyle.Render("(ctrl-c to stop)"),
	)

	return cl.Watch(ctx, character, func(ev *eventstream.Event) error {
		stamp := cliui.DimStyle.Render(ev.EmittedAt.Local().Format(time.TimeOnly))
		name := cliui.NameStyle.Render(ev.Character)

		switch {
		case ev.Thought != nil:
			fmt.Fprintf(w, "  %s %s %s\n", stamp, name, cliui.ValueStyle.Render(ev.Thought.Text))
		case ev.Compression != nil:
			fmt.Fprintf(w, "  %s %s %s\n", stamp, name,
				cliui.DimStyle.Render(fmt.Sprintf("memory compressed, %d entries kept", ev.Compression.Retained)))
		default:
			fmt.Fprintf(w, "  %s %s %s\n", stamp, name, cliui.DimStyle.Render(ev.EventType))
		}
		return nil
	})
}
