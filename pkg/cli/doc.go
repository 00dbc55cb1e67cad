/*
Package cli provides command-line interface utilities for the remold command.

Error Types:

Commands wrap failures in typed errors so the entry point can report them
uniformly:

	return cli.NewCommandError("lint", fmt.Errorf("validation failed"))

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
