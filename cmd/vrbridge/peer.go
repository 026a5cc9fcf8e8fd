package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	bridge "github.com/Zereker/vrbridge"
	"github.com/Zereker/vrbridge/messages"
)

func peerCmd(global *globalFlags) *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Connect to a driver and print its messages",
		Long: `Connect to the bridge socket as the consumer and print every message
the driver sends, one per line, until the driver hangs up or the command
is interrupted. With --action, a user action is sent once after connecting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(global)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			return runPeer(ctx, rt, action, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "User action to send after connecting (e.g. reset)")

	return cmd
}

func runPeer(ctx context.Context, rt *runtime, action string, out io.Writer) error {
	peer, err := bridge.Dial(ctx, rt.cfg.SocketPath, rt.options()...)
	if err != nil {
		return err
	}
	defer peer.Close()

	if action != "" {
		if err := peer.Write(messages.Wrap(&messages.UserAction{Name: action})); err != nil {
			return err
		}
	}

	err = peer.Run(ctx, func(env *messages.Envelope) error {
		_, err := fmt.Fprintln(out, describe(env))
		return err
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, bridge.ErrPeerClosed) {
		return nil
	}
	return err
}

func describe(env *messages.Envelope) string {
	switch p := env.Payload.(type) {
	case *messages.Position:
		return fmt.Sprintf("position id=%d pos=(%.3f %.3f %.3f) rot=(%.3f %.3f %.3f %.3f)",
			p.TrackerID, p.X, p.Y, p.Z, p.Qx, p.Qy, p.Qz, p.Qw)
	case *messages.TrackerAdded:
		return fmt.Sprintf("tracker_added id=%d serial=%q name=%q role=%s",
			p.TrackerID, p.TrackerSerial, p.TrackerName, p.TrackerRole)
	case *messages.TrackerStatus:
		return fmt.Sprintf("tracker_status id=%d status=%s confidence=%s",
			p.TrackerID, p.Status, p.Confidence)
	case *messages.UserAction:
		return fmt.Sprintf("user_action name=%q args=%v", p.Name, p.Arguments)
	}
	return env.Kind()
}
