// Package wallet manages per-user card associations: which catalog
// cards a user holds, with user-specific notes and status, plus the
// enriched read view that joins each association back to its catalog
// entry.
package wallet
