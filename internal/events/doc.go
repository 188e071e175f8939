// Package events decouples the services that request background work from
// the task machinery that performs it. The library service emits a
// TaskRequestEvent for each generation request; the task package registers
// the handler that turns it into a queued task.
package events
