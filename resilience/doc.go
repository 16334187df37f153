// Package resilience guards expensive or flaky calls. A Bulkhead bounds
// how many password hashes run at once; Retry re-attempts the first
// connection to a backing service under a Policy.
package resilience
