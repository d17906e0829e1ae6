package observability

import "sync/atomic"

// ConnectionCounter counts store connections opened since process start.
// One instance is created at startup and shared by the storage accessor
// (writer) and the metrics endpoint (reader). Reads are not ordered with
// concurrent increments and may lag by a few connections.
type ConnectionCounter struct {
	n atomic.Int64
}

// NewConnectionCounter returns a counter starting at zero.
func NewConnectionCounter() *ConnectionCounter { return &ConnectionCounter{} }

// Inc records one opened connection.
func (c *ConnectionCounter) Inc() {
	c.n.Add(1)
	DBConnectionsOpenedTotal.Inc()
}

// Load returns the number of connections opened so far.
func (c *ConnectionCounter) Load() int64 { return c.n.Load() }
