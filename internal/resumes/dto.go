package resumes

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

// saveRequest is the wire form of a snapshot. Photo is kept raw so that an
// absent key, null and a URL string can be told apart.
type saveRequest struct {
	ID    string          `json:"id,omitempty"`
	Photo json.RawMessage `json:"photo,omitempty"`
	Content
}

func decodeSaveRequest(data []byte) (Snapshot, error) {
	var req saveRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Snapshot{}, apperr.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	photo, err := decodePhoto(req.Photo)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: req.ID, Photo: photo, Content: req.Content}, nil
}

func decodePhoto(raw json.RawMessage) (Photo, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return NoPhoto(), nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return RemovePhoto(), nil
	}
	var url string
	if err := json.Unmarshal(trimmed, &url); err != nil {
		return Photo{}, apperr.Invalid("photo", "must be a URL, null or an uploaded file")
	}
	if url == "" {
		return NoPhoto(), nil
	}
	return PhotoAt(url), nil
}

type listResponse struct {
	Resumes []Resume `json:"resumes"`
	Count   int      `json:"count"`
}
