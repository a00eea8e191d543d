package main

import "github.com/rxtech-lab/argo-dashboard/internal/view"

// StoreUpdatedMsg carries a fresh state snapshot from the view store.
type StoreUpdatedMsg struct {
	Snapshot view.Snapshot
}

// BootstrapErrorMsg indicates a failed startup fetch.
type BootstrapErrorMsg struct {
	Err error
}

// BootstrapDoneMsg signals that the initial snapshots are loaded and the
// live stream is running.
type BootstrapDoneMsg struct{}
