package cli

import (
	"context"
	"fmt"
)

// RunScheduledCommand asks the server to queue every due backup.
func (c *OpsCLI) RunScheduledCommand(ctx context.Context, opts Output) int {
	opts.defaults()
	result, err := c.client.RunScheduledBackups(ctx)
	if err != nil {
		return opts.fail("backups run-scheduled", err)
	}
	if opts.JSONOutput {
		return opts.printJSON("backups run-scheduled", result)
	}
	if result.Skipped {
		_, _ = fmt.Fprintln(opts.Stdout, "another scheduler run is in progress, nothing queued")
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "checked %d schedule(s), queued %d backup(s)\n", result.Checked, len(result.Enqueued))
	for _, id := range result.Enqueued {
		_, _ = fmt.Fprintf(opts.Stdout, " - backup %d\n", id)
	}
	return 0
}

// BackupStatsCommand prints the backup counters.
func (c *OpsCLI) BackupStatsCommand(ctx context.Context, opts Output) int {
	opts.defaults()
	stats, err := c.client.BackupStats(ctx)
	if err != nil {
		return opts.fail("backups stats", err)
	}
	return opts.printJSON("backups stats", stats)
}
