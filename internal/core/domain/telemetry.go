package domain

// VertexStatus represents the lifecycle state of a unit of work (Vertex) in
// the resolution pipeline, typically one package being fetched and expanded.
type VertexStatus string

const (
	// VertexStatusPending indicates the vertex is waiting for dependencies or scheduling.
	VertexStatusPending VertexStatus = "pending"
	// VertexStatusRunning indicates the vertex is currently executing.
	VertexStatusRunning VertexStatus = "running"
	// VertexStatusCompleted indicates the vertex executed successfully.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed indicates the vertex execution failed.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusCached indicates the vertex work was answered by the lock artifact.
	VertexStatusCached VertexStatus = "cached"
)

// IsTerminal checks if a status is a terminal state (Completed, Failed, Cached).
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusCompleted, VertexStatusFailed, VertexStatusCached:
		return true
	default:
		return false
	}
}
