package autosave

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bads1de/CareerRise/internal/resumes"
)

func sampleSnapshot() resumes.Snapshot {
	deps := 1
	return resumes.Snapshot{
		Photo: resumes.PhotoUpload(&resumes.FileUpload{Name: "me.png", Size: 10, Type: "image/png", LastModified: 42, Data: []byte("0123456789")}),
		Content: resumes.Content{
			Title:           "Backend",
			PersonalInfo:    resumes.PersonalInfo{FirstName: "Ada", Dependents: &deps},
			WorkExperiences: []resumes.WorkExperience{{Position: "Engineer", Company: "Acme"}},
			Skills:          []string{"Go"},
		},
	}
}

func TestHasChangesReflexive(t *testing.T) {
	a := sampleSnapshot()
	assert.False(t, HasChanges(a, a))
	assert.False(t, HasChanges(a, a.Clone()))
	assert.False(t, HasChanges(resumes.Snapshot{}, resumes.Snapshot{}))
}

func TestHasChangesDetectsFieldEdits(t *testing.T) {
	base := sampleSnapshot()

	edits := map[string]func(*resumes.Snapshot){
		"title":      func(s *resumes.Snapshot) { s.Title = "Frontend" },
		"dependents": func(s *resumes.Snapshot) { d := 2; s.Dependents = &d },
		"work order": func(s *resumes.Snapshot) {
			s.WorkExperiences = append(s.WorkExperiences, resumes.WorkExperience{Position: "Intern"})
		},
		"skill":      func(s *resumes.Snapshot) { s.Skills = []string{"Rust"} },
		"color":      func(s *resumes.Snapshot) { s.ColorHex = "#ffffff" },
		"photo null": func(s *resumes.Snapshot) { s.Photo = resumes.RemovePhoto() },
		"photo file": func(s *resumes.Snapshot) {
			f := *s.Photo.File
			f.LastModified = 43
			s.Photo = resumes.PhotoUpload(&f)
		},
		"id": func(s *resumes.Snapshot) { s.ID = "5f0c5a4e-8d0b-4a43-9a43-1f0c2f5e7a10" },
	}
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			changed := base.Clone()
			edit(&changed)
			assert.True(t, HasChanges(changed, base))
		})
	}
}

func TestHasChangesComparesFileByDescriptor(t *testing.T) {
	a := sampleSnapshot()
	b := a.Clone()
	b.Photo.File.Data = []byte("different bytes, same descriptor")
	assert.False(t, HasChanges(a, b))
}

func TestHasChangesTreatsNilAndEmptyListsAlike(t *testing.T) {
	a := resumes.Snapshot{}
	b := resumes.Snapshot{Content: resumes.Content{Skills: []string{}, Educations: []resumes.Education{}}}
	assert.False(t, HasChanges(a, b))
}
