// Package logging builds the process slog.Logger (console text or JSON) and
// carries run identifiers through contexts so every line of a run can be
// correlated.
package logging
