// invitation-sweep runs one pass of the periodic maintenance the server
// also performs in-process: expiring stale invitations and flipping
// unpaid invoices past their due date to overdue. Useful as a cron job
// when the API runs with background sweeps disabled.
package main

import (
	"context"
	"os"

	"bitbucket.org/fabworks/mfg_backend/config"
	"bitbucket.org/fabworks/mfg_backend/workflow"
)

func main() {
	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if err := workflow.SweepInvitations(context.Background(), logger); err != nil {
		config.LogError(logger, "cmd/invitation-sweep", "main", "workflow.SweepInvitations", nil, err)
		os.Exit(1)
	}
}
