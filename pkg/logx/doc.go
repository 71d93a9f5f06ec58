// Package logx configures robocmd's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Hot-path warnings bounded (Limited drops lines past a per-second budget)
package logx
