// Package storage provides the domain model for the storage tool server:
// the client contract backends fulfil, the opaque CloudObject handle and
// the registry that addresses handles by index.
package storage

import "fmt"

// CloudObject is an opaque handle to an object written through a Client.
// Only the Client that produced it interprets its fields; everyone else
// refers to it by pointer identity.
type CloudObject struct {
	backend string
	bucket  string
	key     string
}

// NewCloudObject creates a handle. Clients call this from PutCloudObject.
func NewCloudObject(backend, bucket, key string) *CloudObject {
	return &CloudObject{backend: backend, bucket: bucket, key: key}
}

// Backend returns the name of the backend that produced the handle.
func (c *CloudObject) Backend() string {
	return c.backend
}

// Bucket returns the bucket holding the object.
func (c *CloudObject) Bucket() string {
	return c.bucket
}

// Key returns the object key.
func (c *CloudObject) Key() string {
	return c.key
}

func (c *CloudObject) String() string {
	return fmt.Sprintf("CloudObject(%s://%s/%s)", c.backend, c.bucket, c.key)
}
