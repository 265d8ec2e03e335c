package autosave

import (
	"reflect"

	"github.com/bads1de/CareerRise/internal/resumes"
)

// photoState is the comparable form of a snapshot photo. Files are reduced to
// their descriptor so identity, not content, drives comparison.
type photoState struct {
	Kind resumes.PhotoKind
	URL  string
	File resumes.FileDescriptor
}

type comparableSnapshot struct {
	ID      string
	Photo   photoState
	Content resumes.Content
}

// HasChanges reports whether current differs from lastSaved.
func HasChanges(current, lastSaved resumes.Snapshot) bool {
	return !reflect.DeepEqual(normalize(current), normalize(lastSaved))
}

// samePhoto reports whether two photo fields are equal after file normalization.
func samePhoto(a, b resumes.Photo) bool {
	return normalizePhoto(a) == normalizePhoto(b)
}

func normalize(s resumes.Snapshot) comparableSnapshot {
	c := s.Content.Clone()
	if c.WorkExperiences == nil {
		c.WorkExperiences = []resumes.WorkExperience{}
	}
	if c.Educations == nil {
		c.Educations = []resumes.Education{}
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Certifications == nil {
		c.Certifications = []string{}
	}
	return comparableSnapshot{ID: s.ID, Photo: normalizePhoto(s.Photo), Content: c}
}

func normalizePhoto(p resumes.Photo) photoState {
	switch p.Kind {
	case resumes.PhotoFile:
		return photoState{Kind: p.Kind, File: p.File.Descriptor()}
	case resumes.PhotoURL:
		return photoState{Kind: p.Kind, URL: p.URL}
	default:
		return photoState{Kind: p.Kind}
	}
}
