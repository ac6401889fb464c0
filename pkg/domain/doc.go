/*
Package domain contains the core data model shared by the generator, the propagation engine
and every adapter.

It is kept pure and free of I/O, following the same hexagonal layering as the rest of the module.

# Key Entities

  - Node: a neuron identified by an integer in [0, N) and assigned to a layer.
  - Edge: a weighted, one-directional connection between two distinct nodes.
  - Graph: the immutable topology produced by a GraphBuilder.
  - Snapshot: the activation of every node at one propagation step.
  - Trace: the ordered list of snapshots returned by one propagation run.
*/
package domain
