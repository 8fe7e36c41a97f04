package graph

import "errors"

// ErrDisconnectedResidual marks pathify's internal-invariant failure: a
// residual graph that Partitioned claims is one connected component but a
// reachability check disproves. This should never trigger given
// Partitioned's connected-component construction; it exists as a fatal guard rather
// than a silent wrong answer.
var ErrDisconnectedResidual = errors.New("graph: residual subgraph is not connected")
