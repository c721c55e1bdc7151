package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

func newResolveCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "resolve <hostname>",
		Short: "Resolve the .local hostname to the IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := &sysnet.PionMdnsResolver{}
			defer resolver.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			addr, err := resolver.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), sysnet.AddrIP(addr))

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Second*5, "resolve timeout")

	return cmd
}
