package resumes

import "time"

// BorderStyle is the photo frame shape used by the preview.
type BorderStyle string

const (
	BorderSquircle BorderStyle = "squircle"
	BorderSquare   BorderStyle = "square"
	BorderCircle   BorderStyle = "circle"
)

const (
	DefaultBorderStyle = BorderSquircle
	DefaultColorHex    = "#000000"
)

// PhotoKind says what the photo field of a snapshot means.
type PhotoKind int

const (
	// PhotoAbsent leaves the stored photo untouched.
	PhotoAbsent PhotoKind = iota
	// PhotoRemove deletes the stored photo.
	PhotoRemove
	// PhotoURL references an already stored photo; treated like PhotoAbsent on save.
	PhotoURL
	// PhotoFile carries a new binary upload.
	PhotoFile
)

// FileUpload is a binary photo as submitted by the editor.
type FileUpload struct {
	Name         string
	Size         int64
	Type         string
	LastModified int64
	Data         []byte
}

// FileDescriptor identifies a file without its bytes.
type FileDescriptor struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"lastModified"`
}

// Descriptor returns the metadata used to compare uploads.
func (f *FileUpload) Descriptor() FileDescriptor {
	if f == nil {
		return FileDescriptor{}
	}
	return FileDescriptor{Name: f.Name, Size: f.Size, Type: f.Type, LastModified: f.LastModified}
}

// Photo is the four-state photo field of a snapshot.
type Photo struct {
	Kind PhotoKind
	URL  string
	File *FileUpload
}

func NoPhoto() Photo                  { return Photo{Kind: PhotoAbsent} }
func RemovePhoto() Photo              { return Photo{Kind: PhotoRemove} }
func PhotoAt(url string) Photo        { return Photo{Kind: PhotoURL, URL: url} }
func PhotoUpload(f *FileUpload) Photo { return Photo{Kind: PhotoFile, File: f} }

// PersonalInfo holds the contact and profile fields of a resume.
type PersonalInfo struct {
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	JobTitle        string `json:"jobTitle,omitempty"`
	City            string `json:"city,omitempty"`
	Country         string `json:"country,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	BirthDate       string `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	Address         string `json:"address,omitempty"`
	NearestStation  string `json:"nearestStation,omitempty"`
	MaritalStatus   string `json:"maritalStatus,omitempty"`
	Dependents      *int   `json:"dependents,omitempty" validate:"omitempty,min=0,max=99"`
	CommuteTime     string `json:"commuteTime,omitempty"`
	DesiredPosition string `json:"desiredPosition,omitempty"`
	DesiredSalary   string `json:"desiredSalary,omitempty"`
	Motivation      string `json:"motivation,omitempty"`
	HealthCondition string `json:"healthCondition,omitempty"`
}

// WorkExperience is one entry of the ordered work history.
type WorkExperience struct {
	Position    string `json:"position,omitempty"`
	Company     string `json:"company,omitempty"`
	StartDate   string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description,omitempty"`
}

// Education is one entry of the ordered education history.
type Education struct {
	Degree    string `json:"degree,omitempty"`
	School    string `json:"school,omitempty"`
	StartDate string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Content is everything a resume holds apart from identity and photo.
type Content struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	PersonalInfo
	Summary         string           `json:"summary,omitempty"`
	WorkExperiences []WorkExperience `json:"workExperiences" validate:"dive"`
	Educations      []Education      `json:"educations" validate:"dive"`
	Skills          []string         `json:"skills" validate:"dive,max=200"`
	Certifications  []string         `json:"certifications" validate:"dive,max=200"`
	BorderStyle     BorderStyle      `json:"borderStyle,omitempty" validate:"omitempty,oneof=squircle square circle"`
	ColorHex        string           `json:"colorHex,omitempty" validate:"omitempty,rgbhex"`
}

// Snapshot is the full editor state submitted for saving.
type Snapshot struct {
	ID    string `json:"id,omitempty" validate:"omitempty,uuid"`
	Photo Photo  `json:"-"`
	Content
}

// Resume is a persisted resume owned by one user.
type Resume struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	PhotoURL *string `json:"photoUrl"`
	Content
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot converts a stored resume back into editor state.
func (r Resume) Snapshot() Snapshot {
	photo := NoPhoto()
	if r.PhotoURL != nil {
		photo = PhotoAt(*r.PhotoURL)
	}
	return Snapshot{ID: r.ID, Photo: photo, Content: r.Content.Clone()}
}

// Clone deep-copies the slices of c.
func (c Content) Clone() Content {
	out := c
	if c.Dependents != nil {
		d := *c.Dependents
		out.Dependents = &d
	}
	out.WorkExperiences = append([]WorkExperience(nil), c.WorkExperiences...)
	out.Educations = append([]Education(nil), c.Educations...)
	out.Skills = append([]string(nil), c.Skills...)
	out.Certifications = append([]string(nil), c.Certifications...)
	return out
}

// Clone deep-copies the snapshot, including file bytes.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Content = s.Content.Clone()
	if s.Photo.File != nil {
		f := *s.Photo.File
		f.Data = append([]byte(nil), s.Photo.File.Data...)
		out.Photo.File = &f
	}
	return out
}
