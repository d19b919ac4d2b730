// Package pool provides a bounded pool of reusable network sessions keyed
// by target host.
//
// The pool bounds concurrency per host and globally, making checkout the
// single backpressure point for outbound calls. Sessions are owned
// exclusively by one caller between Acquire and Release; released sessions
// return to an idle list and are reclaimed by a background reaper once they
// exceed the idle timeout. A session marked non-reusable at release is
// closed instead of returned, and a fresh one is dialed lazily on the next
// demand.
//
// DNS lookups performed by the default dialer are cached for a configurable
// TTL so repeated dials to the same host skip resolution.
package pool
