// Package component defines the lifecycle contract shared by todoapi's
// infrastructure pieces (database, redis, token manager, HTTP server).
//
// Components are registered in dependency order with a Registry, which
// starts them in that order and stops them in reverse.
package component
