package domain

import "context"

// AvatarStore persists avatar images in an external object store and returns
// a publicly reachable URL for each stored object.
type AvatarStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
