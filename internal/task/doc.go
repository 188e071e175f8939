// Package task manages background job queuing, processing, and lifecycle.
// Generating the modules, lessons or sections of a curriculum runs here so
// that HTTP handlers return immediately with a task ID, and unfinished tasks
// are picked up again after a restart.
package task
