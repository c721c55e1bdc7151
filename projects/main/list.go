package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/discovery/dishttp"
	"github.com/open-control-systems/mdns-hub/components/http/htclient"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

func newListCommand() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		status  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services discovered by the running hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver := &sysnet.PionMdnsResolver{}
			defer resolver.Close()

			client := dishttp.NewClient(cmd.Context(), htclient.NewResolveClient(resolver),
				baseURL, timeout)

			if status {
				st, err := client.Status()
				if err != nil {
					return err
				}

				return writeJSON(cmd, st)
			}

			items, err := client.Services()
			if err != nil {
				return err
			}

			return writeJSON(cmd, items)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "hub base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second*5, "HTTP request timeout")
	cmd.Flags().BoolVar(&status, "status", false, "show the hub sessions state")

	return cmd
}
