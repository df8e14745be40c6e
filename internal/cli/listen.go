package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/Asgard118/ayon-dependencies-tool/internal/service"
)

var (
	listenPlatform string
	listenInterval time.Duration
	listenSender   string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run as a worker building packages from server events",
	Long: `Run as a worker building packages from server events.

Polls the server's event queue for build requests targeting this worker's
platform and executes them until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, client, err := newEngine()
		if err != nil {
			return err
		}

		sender := listenSender
		if sender == "" {
			host, err := os.Hostname()
			if err != nil {
				host = "ayon-deps"
			}
			sender = host
		}

		listener := &service.Listener{
			Client:   client,
			Builder:  engine,
			Platform: listenPlatform,
			Sender:   sender,
			Interval: listenInterval,
		}

		ctx := clog.WithLogger(cmd.Context(), clog.DefaultLogger())
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	listenCmd.Flags().StringVarP(&listenPlatform, "platform", "p", defaultPlatform(), "Platform to claim build jobs for")
	listenCmd.Flags().DurationVar(&listenInterval, "interval", service.DefaultInterval, "Queue polling period")
	listenCmd.Flags().StringVar(&listenSender, "sender", "", "Worker identity reported to the server (defaults to hostname)")
}
