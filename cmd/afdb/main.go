// Command afdb inspects the data files of the cluster browser offline.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "afdb:", err)
		os.Exit(1)
	}
}
