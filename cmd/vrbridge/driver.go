package main

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	bridge "github.com/Zereker/vrbridge"
	"github.com/Zereker/vrbridge/messages"
)

type driverFlags struct {
	id     int32
	serial string
	role   string
	tick   time.Duration
}

func driverCmd(global *globalFlags) *cobra.Command {
	var flags driverFlags

	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Accept a consumer and stream a demo tracker",
		Long: `Wait for one consumer to connect, register a tracker, report it as OK
with high confidence, then send a position moving on a unit circle every
tick. Incoming messages are drained each tick. The loop stops on the
first failed send or on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(global)
			if err != nil {
				return err
			}
			role, err := messages.ParseTrackerRole(flags.role)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			return runDriver(ctx, rt, flags, role)
		},
	}

	cmd.Flags().Int32Var(&flags.id, "id", 1, "Tracker id")
	cmd.Flags().StringVar(&flags.serial, "serial", "human://WAIST", "Tracker serial")
	cmd.Flags().StringVar(&flags.role, "role", "waist", "Tracker role")
	cmd.Flags().DurationVar(&flags.tick, "tick", time.Millisecond, "Position update interval")

	return cmd
}

func runDriver(ctx context.Context, rt *runtime, flags driverFlags, role messages.TrackerRole) error {
	sess := bridge.NewSession(rt.options()...)
	defer sess.Close()

	status, err := sess.Start(ctx, rt.cfg.SocketPath)
	if status != bridge.StatusConnected {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return errors.Wrapf(err, "bridge %s", status)
	}

	if err := sess.AddTracker(flags.id, flags.serial, role); err != nil {
		return err
	}
	if err := sess.SendStatus(flags.id, messages.StatusOK, messages.ConfidenceHigh); err != nil {
		return err
	}

	start := time.Now()
	ticker := time.NewTicker(flags.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		elapsed := time.Since(start).Seconds()
		x := float32(math.Sin(elapsed))
		z := float32(math.Cos(elapsed))
		rt.logger.Debug("position", "x", x, "y", 1.0, "z", z)

		if err := sess.SendPosition(flags.id, x, 1, z, 0, 0, 0, 1); err != nil {
			return errors.Wrap(err, "failed to send tracker position")
		}
		sess.Drain()
	}
}
