// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsUSBOnly bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports the appliance may be attached to",
	Long: `List the serial ports present on this host, with USB details when
available, to find the value for --port.

Examples:
  chronostat ports
  chronostat ports --usb

Exit codes:
  0 - At least one port found
  1 - No ports found
  2 - Enumeration error`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsUSBOnly, "usb", false, "Only list USB serial adapters")
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	out := cmd.OutOrStdout()
	found := 0
	for _, p := range ports {
		if portsUSBOnly && !p.IsUSB {
			continue
		}
		found++
		fmt.Fprintln(out, formatPort(p))
	}

	if found == 0 {
		fmt.Fprintln(out, "No serial ports found")
		os.Exit(1)
	}
	return nil
}

// formatPort renders one port as "name [VID:PID serial product]"
func formatPort(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return p.Name
	}

	details := []string{fmt.Sprintf("USB %s:%s", p.VID, p.PID)}
	if p.SerialNumber != "" {
		details = append(details, "serial "+p.SerialNumber)
	}
	if p.Product != "" {
		details = append(details, p.Product)
	}
	return fmt.Sprintf("%-20s %s", p.Name, strings.Join(details, ", "))
}
