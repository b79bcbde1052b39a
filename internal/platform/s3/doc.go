// Package s3 provides a client for S3-compatible object storage.
//
// It handles object upload, bucket reachability checks, and key listing for
// backup storage. Custom endpoints and path-style addressing are supported so
// the same client serves AWS S3, Wasabi, and other compatible backends.
package s3
