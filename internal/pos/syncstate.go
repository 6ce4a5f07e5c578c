package pos

import "fmt"

// SyncStatus is the sync lifecycle state of a local record.
type SyncStatus string

const (
	SyncPending  SyncStatus = "PENDING"  // local changes not yet pushed
	SyncSyncing  SyncStatus = "SYNCING"  // push attempt in flight
	SyncSynced   SyncStatus = "SYNCED"   // remote matches local
	SyncFailed   SyncStatus = "FAILED"   // last push attempt failed
	SyncConflict SyncStatus = "CONFLICT" // declared, no producing transition
)

var validSyncNext = map[SyncStatus]map[SyncStatus]bool{
	SyncPending:  {SyncSyncing: true},
	SyncSyncing:  {SyncSynced: true, SyncFailed: true},
	SyncSynced:   {SyncPending: true},
	SyncFailed:   {SyncPending: true, SyncSyncing: true},
	SyncConflict: {},
}

func CanTransitionSync(from, to SyncStatus) bool {
	return validSyncNext[from][to]
}

// TransitionSync returns to if the move is legal, or an error naming both states.
func TransitionSync(from, to SyncStatus) (SyncStatus, error) {
	if !CanTransitionSync(from, to) {
		return from, fmt.Errorf("illegal sync transition %s -> %s", from, to)
	}
	return to, nil
}

// Dirty reports whether the record carries unsent local intent. Pull must
// never overwrite a dirty record.
func (s SyncStatus) Dirty() bool {
	return s == SyncPending || s == SyncSyncing || s == SyncFailed
}

// PushableStatuses are the states the push phase selects on.
func PushableStatuses() []SyncStatus {
	return []SyncStatus{SyncPending, SyncFailed}
}
