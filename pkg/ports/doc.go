/*
Package ports defines the driven and driving ports of the synapse engine.

These interfaces decouple the core from transport shells and cache backends.

# Key Interfaces

  - Engine: what a transport shell (HTTP, MCP, CLI) needs from the engine.
  - TraceCache: stores propagation traces for a graph so repeated stimuli are not recomputed.
*/
package ports
