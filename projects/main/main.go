package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/syssched"
)

func main() {
	var logPath string

	rootCmd := &cobra.Command{
		Use:           "mdns-hub",
		Short:         "LAN service discovery and advertisement over mDNS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logPath == "" {
				logPath = os.Getenv("MDNS_HUB_LOG_PATH")
			}

			if err := core.SetLogFile(logPath); err != nil {
				return fmt.Errorf("failed to setup log file: %w", err)
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logPath, "log-path", "",
		"log file path, MDNS_HUB_LOG_PATH is used if empty")

	rootCmd.AddCommand(
		newBrowseCommand(),
		newAdvertiseCommand(),
		newServeCommand(),
		newResolveCommand(),
		newProbeCommand(),
		newListCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// application holds the resources shared by the long-running commands.
type application struct {
	ctx      context.Context
	cancel   context.CancelFunc
	closer   *core.FanoutCloser
	starter  *syssched.FanoutStarter
	registry *sysmdns.Registry
}

func newApplication() *application {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	app := &application{
		ctx:     ctx,
		cancel:  cancel,
		closer:  &core.FanoutCloser{},
		starter: &syssched.FanoutStarter{},
		registry: sysmdns.NewRegistry(sysmdns.NewZeroconfEngineFactory(
			sysmdns.DefaultZeroconfTransportParams(),
			sysmdns.DefaultEngineParams(),
		)),
	}
	app.closer.Add("mdns-registry", app.registry)

	return app
}

// run starts all components and blocks until the process is signaled.
func (a *application) run() error {
	defer a.close()

	if err := a.starter.Start(); err != nil {
		return err
	}

	<-a.ctx.Done()

	core.LogInf.Println("mdns-hub: stopping")

	return nil
}

// close stops all components in reverse order of registration.
func (a *application) close() {
	a.cancel()
	_ = a.closer.Close()
}
