// Package core orchestrates statement imports on top of the pure strategy,
// mapper and export packages.
//
// # Import lifecycle
//
// An import is a session kept in memory for a limited time:
//
//	Prepare        -> prepared          file parsed, strategy picked, rows mapped
//	CreateAccounts -> accounts_created  pending accounts created in one transaction
//	               -> remapped          rows mapped again against the new snapshot
//	Commit         -> committed         valid transfers copied in one transaction
//
// Commit is allowed from prepared when no account is pending, or from
// remapped. Anything else fails with ErrInvalidPhase. Commits share one
// ImportLimiter bounding how many run at once.
//
// # Strategies
//
// Strategy CRUD and the export protocol also go through ImportService.
// Names are stripped of markup before they are stored.
//
// # Errors
//
// MapError turns any error returned here into a coded UserMessage.
package core
