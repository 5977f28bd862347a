package hal

// Memory is the heap facade.
type Memory interface {
	// Malloc allocates size bytes. Contents are unspecified.
	Malloc(size uint32) ([]byte, error)

	// Realloc resizes b, preserving the common prefix. Realloc(nil, n) is
	// Malloc(n) and Realloc(b, 0) frees b and returns nil.
	Realloc(b []byte, size uint32) ([]byte, error)

	// Calloc allocates nmemb*size zeroed bytes.
	Calloc(nmemb, size uint32) ([]byte, error)

	// Free releases b. Free(nil) is a no-op.
	Free(b []byte)
}
