// orders-month-reset zeroes the monthly order usage counter of every
// workspace whose counter month lies behind the current one. The server
// runs the same reset on its sweep ticker; this tool exists for cron
// setups and for forcing a reset after clock or plan changes.
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

	if err := workflow.ResetMonthlyOrderCounters(context.Background(), logger); err != nil {
		config.LogError(logger, "cmd/orders-month-reset", "main", "workflow.ResetMonthlyOrderCounters", nil, err)
		os.Exit(1)
	}
}
