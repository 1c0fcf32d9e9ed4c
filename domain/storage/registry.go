package storage

// Registry is the ordered, index-addressed collection of CloudObject handles
// shared by every tool call of a session.
//
// Indices are contiguous: removing entry k shifts every later entry down by
// one, so an index is only meaningful until the next removal.
type Registry interface {
	// Append adds obj at the end and returns its index.
	Append(obj *CloudObject) int

	// Get returns the handle at index.
	Get(index int) (*CloudObject, error)

	// Delete removes and returns the handle at index.
	Delete(index int) (*CloudObject, error)

	// DeleteRange removes the half-open slice [start, end) and returns the
	// removed handles in their original order.
	DeleteRange(start, end int) ([]*CloudObject, error)

	// Slice returns the handles in [start, end) without removing them.
	Slice(start, end int) ([]*CloudObject, error)

	// Remove deletes the given handles by identity and reports how many were found.
	Remove(objs ...*CloudObject) int

	// Len returns the current number of handles.
	Len() int

	// List returns a snapshot of all handles in index order.
	List() []*CloudObject
}
