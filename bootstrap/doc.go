// Package bootstrap runs the todoapi process lifecycle.
//
// NewApp validates the typed config and initializes the global logger.
// Run starts the registered components in order, runs the ready hooks,
// blocks until SIGINT/SIGTERM (or ctx cancellation) and then stops
// everything in reverse within the graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(dbComponent)
//	app.RegisterComponent(httpComponent)
//	if err := app.Run(ctx); err != nil {
//		os.Exit(1)
//	}
package bootstrap
