package main

import (
	"context"
	"fmt"
)

// cleanupSessions completes scheduled sessions whose end time has passed.
// Safe to run from cron; already-completed rows are untouched.
func (cli *commandLine) cleanupSessions() error {
	n, err := cli.sessSvc.CleanupExpired(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d session(s) marked completed\n", n)
	return nil
}
