// Package threads owns the inbox thread collection and the selected-thread
// pointer. Every mutation goes through Store and is committed to the storage
// repository before it returns.
package threads
