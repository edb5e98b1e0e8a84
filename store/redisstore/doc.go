// Package redisstore implements cache.Store on top of Redis using
// github.com/redis/go-redis/v9.
//
// ReadMany issues a single MGET against a standalone or failover client. A
// cluster client cannot MGET across hash slots, so ReadMany pipelines one GET
// per key instead, which is still one round trip per node.
package redisstore
