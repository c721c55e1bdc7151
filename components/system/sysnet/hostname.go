package sysnet

import (
	"os"
	"strings"
)

// UnknownHostname is used when the OS hostname can't be determined.
const UnknownHostname = "unknown-host"

// Hostname returns the local machine hostname without a domain suffix,
// e.g. "my-pc" for "my-pc.example.com".
func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return UnknownHostname
	}

	hostname, _, _ = strings.Cut(hostname, ".")
	if hostname == "" {
		return UnknownHostname
	}

	return hostname
}

// LocalHostname returns the local machine mDNS hostname, e.g. "my-pc.local.".
func LocalHostname() string {
	return Hostname() + ".local."
}
