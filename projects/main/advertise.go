package main

import (
	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/disadvert"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

type advertiseParams struct {
	instance    string
	serviceType string
	port        int
	txt         map[string]string
}

func newAdvertiseCommand() *cobra.Command {
	params := &advertiseParams{}

	cmd := &cobra.Command{
		Use:   "advertise",
		Short: "Advertise a service on the local network",
		RunE: func(_ *cobra.Command, _ []string) error {
			app := newApplication()

			if err := advertise(newAdvertiseSession(app), params); err != nil {
				app.close()

				return err
			}

			return app.run()
		},
	}

	cmd.Flags().StringVar(&params.instance, "instance", sysnet.Hostname(),
		"service instance name")
	cmd.Flags().StringVar(&params.serviceType, "type", "_http._tcp.local.",
		"service type to advertise")
	cmd.Flags().IntVar(&params.port, "port", 80, "service port")
	cmd.Flags().StringToStringVar(&params.txt, "txt", nil,
		"TXT record entries, e.g. --txt version=1.0,path=/")

	return cmd
}

func newAdvertiseSession(app *application) *disadvert.Session {
	session := disadvert.NewSession(app.registry,
		discovery.LogErrorReporter{Source: "advertise-session"})
	app.closer.Add("advertise-session", session)

	return session
}

func advertise(session *disadvert.Session, params *advertiseParams) error {
	metadata := make(map[string]any, len(params.txt))
	for key, value := range params.txt {
		metadata[key] = value
	}

	return session.Advertise(params.instance, params.serviceType, params.port, metadata)
}
