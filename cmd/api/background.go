package main

import (
	"context"
	"time"
)

// reconcileAverages repairs places whose stored averages drifted from their
// ratings, for example after manual edits in the database.
func (app *application) reconcileAverages() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fixed, err := app.store.Ratings.Reconcile(ctx)
	if err != nil {
		app.logger.Errorf("Error reconciling place averages: %v", err)
		return
	}
	if fixed > 0 {
		app.logger.Infof("Reconciled averages of %d places at %s", fixed, time.Now().Format(time.RFC1123))
	}
}

func (app *application) reconcileAveragesEvery(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run once immediately
		app.reconcileAverages()

		for range ticker.C {
			app.reconcileAverages()
		}
	}()
}
