// Package s3fetch downloads .4spl objects from Amazon S3.
package s3fetch

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme prefixes every S3 URI.
const Scheme = "s3://"

// IsS3URI reports whether uri uses the s3:// scheme.
func IsS3URI(uri string) bool {
	return strings.HasPrefix(uri, Scheme)
}

// ParseS3URI parses an S3 URI into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, Scheme)
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}

	return bucket, key, nil
}

// ParseObjectURI is ParseS3URI for URIs that must name an object.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	bucket, key, err = ParseS3URI(uri)
	if err != nil {
		return "", "", err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid S3 URI %q: missing object key", uri)
	}
	return bucket, key, nil
}
