// Package channel provides the channel-name syntax used by the dispatch
// registry.
//
// A registry key is either a bare channel name ("connect"), a
// target-qualified name ("server:connect"), or the wildcard "*". The
// part before the first ":" is the target, the part after is the channel.
package channel
