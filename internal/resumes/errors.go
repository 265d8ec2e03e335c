package resumes

import (
	"errors"
	"fmt"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

var (
	// ErrNotFound indicates no resume with that id is owned by the caller.
	ErrNotFound = fmt.Errorf("resume %w", apperr.ErrNotFound)

	// ErrStoreNotConfigured is returned when a photo upload arrives without object storage.
	ErrStoreNotConfigured = errors.New("object store not configured")
)

const (
	maxPhotoBytes = 4 << 20 // 4MB
	photoPrefix   = "resume_photos"
)
