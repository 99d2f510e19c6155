/*
Package state holds the in-memory indices over the replicated data: users
by id and by name, messages, per-pair conversations, unread queues, session
tokens, and the id pools.

Every read query the API serves is answered from these indices under a read
lock, on any node, without consulting the log. Mutations happen only while
applying committed log entries (plus id reservations on the leader's
propose path) under the write lock.

# Determinism

The indices are a pure function of the applied log prefix. The Apply*
methods never read clocks or random sources; everything they need arrives
inside the command payload. Id pools reuse tombstoned ids lowest-first, and
a create command that no-ops on apply (duplicate username) releases its id
on every replica, so leaders and followers allocate identical id sequences.

# Reconstruction

NewFromSnapshot rebuilds all indices from the durable store's snapshot:
conversations are regenerated from the message set in (timestamp, uid)
order, id pools from the gaps in the live id sets, and expired sessions are
dropped. Entries committed but not yet applied before the restart are then
replayed through the normal Apply* path.
*/
package state
