/*
Package observability provides Prometheus instrumentation for the synapse engine.

Metrics are fed through domain.LifecycleHooks, so the engine itself stays free of
any metrics dependency.
*/
package observability
