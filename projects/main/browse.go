package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/disbrowse"
	"github.com/open-control-systems/mdns-hub/components/system/syssched"
)

type browseParams struct {
	serviceType  string
	hint         string
	pollInterval time.Duration
}

func (p *browseParams) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.serviceType, "type", "_http._tcp.local.",
		"service type to browse for")
	cmd.Flags().StringVar(&p.hint, "iface", "",
		"IP address of the interface to pin browsing to")
	cmd.Flags().DurationVar(&p.pollInterval, "poll-interval", time.Millisecond*100,
		"how often to deliver discovered services")
}

func newBrowseCommand() *cobra.Command {
	params := &browseParams{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the local network for services",
		RunE: func(_ *cobra.Command, _ []string) error {
			app := newApplication()

			if _, err := startBrowsing(app, discovery.LogHandler{}, params); err != nil {
				app.close()

				return err
			}

			return app.run()
		},
	}

	params.register(cmd)

	return cmd
}

func startBrowsing(
	app *application,
	handler discovery.Handler,
	params *browseParams,
) (*disbrowse.Session, error) {
	session := disbrowse.NewSession(app.registry, handler,
		discovery.LogErrorReporter{Source: "browse-session"})
	app.closer.Add("browse-session", session)

	session.SetInterfaceHint(params.hint)

	if err := session.Start(params.serviceType); err != nil {
		return nil, err
	}

	runner := syssched.NewAsyncTaskRunner(app.ctx, session, nil,
		syssched.AsyncTaskRunnerParams{
			UpdateInterval: params.pollInterval,
		})
	app.starter.Add(runner)
	app.closer.Add("browse-runner", syssched.StopCloser(runner))

	return session, nil
}
