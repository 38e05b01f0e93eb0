/*
Package snapshot persists materialized design trees and turns them back into
events.

A snapshot is the output of design.Runtime.State. The Manager serializes access
per project, optionally across replicas through a distributed locker, and can
seed an empty event log from a saved snapshot.
*/
package snapshot
