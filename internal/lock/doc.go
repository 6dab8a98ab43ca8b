// Package lock implements the loopback-port single-instance guard at the
// core of portguard.
//
// The mechanism is a classic: bind a datagram socket to a well-known port
// on 127.0.0.1 and let the kernel's port table arbitrate. Two processes
// racing to bind the same port are serialized by the kernel, and exactly
// one observes success — that one is the sole active instance. No data is
// ever sent on the socket; it exists purely to occupy the port.
//
// The Guard provides lazy, at-most-once acquisition (TryAcquire is an
// idempotent no-op once the lock is held), a typed failure taxonomy that
// distinguishes "another instance holds this lock" from genuine errors,
// and guaranteed release of the socket on every failure path. Release on
// abnormal process termination is delegated to the OS, which closes all
// descriptors on exit, so even a killed holder frees the lock.
package lock
