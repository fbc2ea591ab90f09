// Package handler defines the handler descriptor: the metadata that makes
// a callable subscribable (its kind and channel names). Descriptors are
// built once, are immutable, and are identified by pointer.
package handler
