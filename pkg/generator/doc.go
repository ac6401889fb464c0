/*
Package generator builds random layered graphs.

Nodes are partitioned into contiguous layers. Every pair of nodes in the same or adjacent
layers is connected with a fixed probability, then a small number of long-range trials add
sparse connections that ignore the layer structure. The result is an immutable domain.Graph.

Generation is O(N²) in the node count and is intended for graphs of a few hundred nodes.
Randomness is always supplied by the caller so that topologies can be reproduced from a seed.
*/
package generator
