// Package command defines the command lifecycle contract and its composites.
//
// A Command claims a set of subsystems while it runs. The scheduler (internal/scheduler)
// resolves claim conflicts between top-level commands; composites in this package drive
// their own children through the same Init/Exec/Finished/Stop lifecycle:
//   - Group: legacy mixed sequential/parallel entries with optional timeouts
//   - Sequential: strict ordered execution, one child at a time
//   - Conditional: branch chosen once per scheduling
//   - Proxy: forks commands onto the scheduler and waits for all of them
//
// Every Command embeds Base. Base carries ownership and lifecycle bookkeeping, so a
// command incorporated into a composite can't be scheduled or composed anywhere else.
// Contract violations panic; they are programming errors, not runtime conditions.
package command
