// Package logger provides structured logging for stepflow using zerolog.
//
// Every pipeline run logs through a logger tagged with the definition name
// and run ID; step entries add the step index, name, status and duration.
// In console format those scope fields collapse into a prefix:
//
//	15:04:05 DBG [checkout#2 charge_card] run step duration_ms=3 run_id=... status=success
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("flow").ForRun("checkout", runID)
//	log.Debug("run step", logger.StepFields(2, "charge_card", "success", elapsed))
package logger
