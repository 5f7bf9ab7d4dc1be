// Package spooler drives the local CUPS installation through its command-line
// tools and turns their textual output into typed values.
//
// Commands are executed directly (no shell) with a per-invocation timeout:
//
//	adapter := spooler.NewCUPSAdapter(&spooler.CUPSConfig{
//	    Timeout: 5 * time.Second,
//	    Logger:  logger,
//	})
//
//	if adapter.QueryDaemonLive(ctx) {
//	    devices := adapter.QueryDevices(ctx)
//	    jobID, err := adapter.Submit(ctx, "/var/spool/gateway/a.pdf", devices[0].Name, opts)
//	}
//
// Tests substitute the Runner, or point the binary paths at stub scripts.
package spooler
