// Package memcache implements cache.Store on top of memcached using
// github.com/bradfitz/gomemcache.
//
// Keys are prefixed with "<namespace>:" when a namespace is configured. Pair
// the namespace with cache.Config.StoreNamespace so the client's key budget
// leaves room for the prefix. ReadMany is served by a single GetMulti round
// trip per server.
//
// gomemcache has no context support; a cancelled context is checked before
// each call and the client's Timeout bounds every network operation.
package memcache
