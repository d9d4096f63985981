// Package store provides the durable key/value area shared by every
// process serving the same classroom origin. The session and analytics
// collections each live under one fixed key as a JSON blob; consumers
// hold only transient snapshots of what they read.
package store

import "context"

// Fixed keys. The names are part of the wire contract with other
// deployments sharing the same Redis.
const (
	SessionsKey = "parentyn:sessions"
	ResultsKey  = "parentyn:cbt_results"
)

// Store is the injected persistence boundary. Implementations must treat
// an absent key as (nil, false, nil), never as an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
