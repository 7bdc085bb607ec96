// SPDX-License-Identifier: MIT

// Command lvimpute imputes missing values in numeric CSV tables.
package main

import (
	"os"

	"github.com/katalvlaran/lvimpute/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
