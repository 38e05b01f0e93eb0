/*
Package bus connects the design runtime to its backend event log.

A Bus fetches the startup snapshot exactly once and signals readiness through a
one-shot channel. It then attaches the live subscription right after the last
startup event, so no event is missed or delivered twice across the hand-off.
Local, unrecorded events are merged into the same live feed. The startup snapshot
is always fully available before the first live event, and every source keeps its
own order.
*/
package bus
