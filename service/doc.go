// Package service orchestrates the engine: the order book, the
// command log, snapshots and the outbound event stream.
//
// It provides the API for placing, cancelling and querying orders,
// decoupled from any transport.
package service
