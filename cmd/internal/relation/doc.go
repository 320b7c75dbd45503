// Package relation implements Reel's idempotent user-to-entity relations:
// likes on videos, comments and tweets, and channel subscriptions.
//
// Both relations share one contract: toggling flips presence and reports the
// resulting state. Duplicate inserts and deletes of absent rows are absorbed
// rather than failed, so concurrent toggles converge instead of erroring.
package relation
