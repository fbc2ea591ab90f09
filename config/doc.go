// Package config loads engine configuration from TOML and watches it
// for changes.
//
//	[manager]
//	queue_capacity = 128
//
//	[log]
//	level = "debug"
//
// A missing file yields the defaults. The Watcher delivers reloaded
// configurations over a channel; hosts forward them into the dispatch
// tree as Reloaded events from their own run loop.
package config
