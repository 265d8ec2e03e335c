package ai

import (
	"strings"
	"time"

	"github.com/bads1de/CareerRise/internal/resumes"
)

// parseWorkExperience reads the labelled lines of a work experience reply.
// Description may continue over the following lines.
func parseWorkExperience(text string) resumes.WorkExperience {
	var out resumes.WorkExperience
	var desc []string
	inDesc := false
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		label, value, ok := labelled(line)
		if !ok {
			if inDesc {
				desc = append(desc, strings.TrimRight(line, " \t"))
			}
			continue
		}
		inDesc = false
		switch label {
		case "job title", "position":
			out.Position = value
		case "company":
			out.Company = value
		case "start date":
			out.StartDate = isoDate(value)
		case "end date":
			out.EndDate = isoDate(value)
		case "description":
			inDesc = true
			if value != "" {
				desc = append(desc, value)
			}
		}
	}
	out.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return out
}

var knownLabels = map[string]bool{
	"job title":   true,
	"position":    true,
	"company":     true,
	"start date":  true,
	"end date":    true,
	"description": true,
}

func labelled(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*-# "))
	if !knownLabels[key] {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// isoDate keeps value only when it is a YYYY-MM-DD date.
func isoDate(value string) string {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return ""
	}
	return value
}
