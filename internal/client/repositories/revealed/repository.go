// Package revealed persists, per namespace, the set of entry ids a viewer has
// opened. Namespaces never share rows.
package revealed

import "context"

// Repository stores whole sets. ReadNamespace of an unknown key is an empty,
// non-nil set.
type Repository interface {
	ReadNamespace(ctx context.Context, key string) (map[string]struct{}, error)
	WriteNamespace(ctx context.Context, key string, ids map[string]struct{}) error
}
