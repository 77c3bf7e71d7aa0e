// SPDX-License-Identifier: MIT

// Command gcem trains Gaussian-process emulators of simulator runs and
// constrains candidate parameter samples against observations.
//
//	gcem sample    --config run.yaml
//	gcem constrain --config run.yaml
//	gcem runs list --store DIR
//	gcem runs show ID --store DIR
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "gcem:", err)
		stop()
		os.Exit(1)
	}
}
