// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Chronostat - Clock Appliance Simulator
//
// A CLI tool that runs the clock appliance firmware logic against simulated
// buttons, display and clock chip, and talks to real appliances over their
// serial update protocol.

package main

import (
	"os"

	"github.com/Thermoquad/chronostat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
