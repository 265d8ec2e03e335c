package resumes

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	rgbHex       = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func schema() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// hexcolor also takes #rgb and #rrggbbaa; stored colors are always #rrggbb.
		_ = validate.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
			return rgbHex.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Normalize trims every text field and drops blank list items.
func (s *Snapshot) Normalize() {
	s.ID = strings.TrimSpace(s.ID)
	c := &s.Content
	for _, f := range c.textFields() {
		*f = strings.TrimSpace(*f)
	}
	for i := range c.WorkExperiences {
		w := &c.WorkExperiences[i]
		for _, f := range []*string{&w.Position, &w.Company, &w.StartDate, &w.EndDate, &w.Description} {
			*f = strings.TrimSpace(*f)
		}
	}
	for i := range c.Educations {
		e := &c.Educations[i]
		for _, f := range []*string{&e.Degree, &e.School, &e.StartDate, &e.EndDate} {
			*f = strings.TrimSpace(*f)
		}
	}
	c.Skills = compact(c.Skills)
	c.Certifications = compact(c.Certifications)
	c.BorderStyle = BorderStyle(strings.ToLower(strings.TrimSpace(string(c.BorderStyle))))
	c.ColorHex = strings.ToLower(c.ColorHex)
	if s.Photo.Kind == PhotoFile && s.Photo.File != nil && s.Photo.File.Type == "" {
		s.Photo.File.Type = http.DetectContentType(s.Photo.File.Data)
	}
}

// Validate checks the snapshot against the resume schema.
func (s Snapshot) Validate() error {
	var fields []apperr.FieldError
	if err := schema().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fieldPath(fe.Namespace()), Message: describe(fe)})
		}
	}
	if s.Photo.Kind == PhotoFile {
		fields = append(fields, validatePhoto(s.Photo.File)...)
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func validatePhoto(f *FileUpload) []apperr.FieldError {
	if f == nil || len(f.Data) == 0 {
		return []apperr.FieldError{{Field: "photo", Message: "file is empty"}}
	}
	var out []apperr.FieldError
	if !strings.HasPrefix(f.Type, "image/") {
		out = append(out, apperr.FieldError{Field: "photo", Message: "must be an image file"})
	}
	if int64(len(f.Data)) > maxPhotoBytes || f.Size > maxPhotoBytes {
		out = append(out, apperr.FieldError{Field: "photo", Message: "image must be less than 4MB"})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "rgbhex":
		return "must be a hex color in #RRGGBB form"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid id"
	case "min", "max":
		return "must be " + fe.Tag() + " " + fe.Param()
	default:
		return "is invalid"
	}
}

// fieldPath drops the root struct name and embedded struct names.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "Content" || p == "PersonalInfo" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return ns
	}
	return strings.Join(out, ".")
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c *Content) textFields() []*string {
	p := &c.PersonalInfo
	return []*string{
		&c.Title, &c.Description, &c.Summary, &c.ColorHex,
		&p.FirstName, &p.LastName, &p.JobTitle, &p.City, &p.Country, &p.Phone, &p.Email,
		&p.BirthDate, &p.Gender, &p.PostalCode, &p.Address, &p.NearestStation, &p.MaritalStatus,
		&p.CommuteTime, &p.DesiredPosition, &p.DesiredSalary, &p.Motivation, &p.HealthCondition,
	}
}
