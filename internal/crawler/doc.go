// Package crawler drives pages from New to a terminal fetch outcome. It
// claims batches of pending pages from the store, fetches them under a
// bounded worker pool, validates and commits the results, and optionally
// cascades straight into navigation and parsing on the fresh content.
//
// Failures are page-scoped: a dead server or a buggy rule marks one page
// and the run moves on. Only storage errors abort a run, since nothing
// after a failed write can be trusted.
package crawler
