// Package core defines the shared value types of the orchestration core:
// conversation messages, tool invocations surfaced by the model, and id
// generation. Higher-level packages (transcript, status, tool, session)
// build on these types; core itself has no behavior beyond construction.
package core
