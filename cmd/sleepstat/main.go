// Command sleepstat runs the sleep-health regression analysis on a CSV file
// and writes a text report plus figures.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
