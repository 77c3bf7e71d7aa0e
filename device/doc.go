// Package device scopes emulator work to an accelerator or worker slot.
//
// A Pool holds one weighted semaphore per device index. Every training,
// sampling or constraint run acquires a Lease on its configured device
// for the duration of the run and releases it on every exit path, so at
// most Capacity runs share a device at a time. Acquire honours context
// cancellation while waiting.
package device
