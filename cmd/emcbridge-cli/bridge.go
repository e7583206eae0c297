package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/symbrkrs/emcbridge/internal/client"
	"github.com/symbrkrs/emcbridge/internal/console"
	"github.com/symbrkrs/emcbridge/internal/discovery"
	"github.com/symbrkrs/emcbridge/internal/server"
)

// consoleURL returns the bridge's /emc endpoint.
func consoleURL(ctx context.Context) (string, error) {
	if bridgeURL != "" {
		return bridgeURL, nil
	}
	d, err := findBridge(ctx)
	if err != nil {
		return "", err
	}
	return d.EMCURL(), nil
}

// relayURL returns the bridge's /efc endpoint.
func relayURL(ctx context.Context) (string, error) {
	if bridgeURL != "" {
		return withPath(bridgeURL, server.DefaultEFCPath)
	}
	d, err := findBridge(ctx)
	if err != nil {
		return "", err
	}
	if !d.HasEFC() {
		return "", fmt.Errorf("bridge %s does not relay the secondary UART (efc.enabled is off)", d.Instance)
	}
	return d.EFCURL(), nil
}

func withPath(raw, path string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid --url: %w", err)
	}
	u.Path = path
	u.RawQuery = ""
	return u.String(), nil
}

// findBridge locates a bridge via mDNS. With several answers an interactive
// terminal gets a picker; scripts get an error listing them.
func findBridge(ctx context.Context) (*discovery.Device, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	if instance != "" {
		return scanner.WaitForDeviceWithContext(ctx, instance)
	}

	fmt.Fprintln(os.Stderr, "No --url given, looking for bridges...")
	devices, err := scanner.ScanForDevicesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	switch {
	case len(devices) == 0:
		return nil, errors.New("no bridges found. Use --url to connect directly")
	case len(devices) == 1:
		fmt.Fprintf(os.Stderr, "Found %s\n\n", devices[0])
		return devices[0], nil
	case term.IsTerminal(int(os.Stdin.Fd())):
		return console.Pick(devices)
	}

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Instance
	}
	return nil, fmt.Errorf("multiple bridges found (%s). Use --instance to choose one", strings.Join(names, ", "))
}

// dialConsole finds the bridge and connects to its console.
func dialConsole(ctx context.Context) (*client.Client, error) {
	u, err := consoleURL(ctx)
	if err != nil {
		return nil, err
	}
	return client.Dial(ctx, u)
}

// hintList turns a connection error's hint text into troubleshooting items.
func hintList(err error) []string {
	var items []string
	for _, line := range strings.Split(client.GetTroubleshootingHint(err), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
		if line == "" || line == "Troubleshooting:" {
			continue
		}
		items = append(items, line)
	}
	return items
}
