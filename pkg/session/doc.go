/*
Package session coordinates persistence of presentation sessions.

A Manager wraps a ports.SnapshotStore and serializes every read and write of one
session, locally with a reference-counted mutex and across replicas with an optional
ports.DistributedLocker.
*/
package session
