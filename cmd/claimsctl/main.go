// Command claimsctl is the operator tool for the claims workflow: it prints
// the status graphs, checks SLA limit files, does business-day math and
// converts claim numbers to public codes and back.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
