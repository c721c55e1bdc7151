package main

import (
	"encoding/json"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

func newProbeCommand() *cobra.Command {
	params := sysnet.ProbeParams{
		Group: net.ParseIP(sysmdns.MdnsGroupIPv4),
	}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether the network stack delivers multicast traffic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd, sysnet.Probe(params))
		},
	}

	cmd.Flags().IntVar(&params.Port, "port", sysmdns.MdnsPort, "mDNS port to check")
	cmd.Flags().DurationVar(&params.Timeout, "timeout", time.Second,
		"how long to wait for each looped back packet")

	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(value)
}
