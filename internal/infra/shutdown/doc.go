// Package shutdown coordinates graceful process termination.
//
// Components register named hooks while starting up. When SIGINT/SIGTERM
// arrives, or Trigger is called after a fatal serve error, the hooks run in
// reverse registration order under a shared timeout.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("storage", table.Close)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait()
package shutdown
