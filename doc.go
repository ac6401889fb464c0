/*
Package synapse simulates signal propagation over a synthetic, layered, weighted directed graph.

It generates a random graph with layer-local and sparse long-range connectivity, then runs a
fixed number of synchronous activation steps seeded from an input string, returning a snapshot
of every node's activation at each step.

# Concept

The graph is built once and published as an immutable value. Every propagation request reads
the currently published graph without locking, so any number of requests can run concurrently.
Regeneration builds a new graph on the side and swaps it in atomically; requests already in
flight finish against the graph they started with.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/synapse"
	)

	func main() {
		// 100 nodes in 5 layers, 10 propagation steps.
		eng, err := synapse.New(synapse.WithSeed(42))
		if err != nil {
			log.Fatal(err)
		}

		trace, err := eng.Propagate(context.Background(), "hello")
		if err != nil {
			log.Fatal(err)
		}

		for step, snapshot := range trace {
			fmt.Println(step, snapshot[0].Value)
		}
	}

The two core operations are also available without the engine: Generate builds a graph and
Propagate runs a stimulus through it.
*/
package synapse
