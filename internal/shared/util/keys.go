package util

import (
	"crypto/sha256"
	"encoding/hex"
	"path"

	"github.com/google/uuid"
)

// OwnerSegment hides the raw user id in object keys. Stable per owner.
func OwnerSegment(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
}

// ObjectKey returns a fresh key of the form prefix/owner/uuid.ext.
func ObjectKey(prefix, userID, fileName, contentType string) string {
	return path.Join(prefix, OwnerSegment(userID), uuid.NewString()+FileExt(fileName, contentType))
}
