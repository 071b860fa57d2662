// Package all registers the filesystem and S3 blob stores with the
// blobstore factory. "memory" is always available.
package all

import (
	_ "csvdataset/internal/blobstore/local"
	_ "csvdataset/internal/blobstore/s3"
)
