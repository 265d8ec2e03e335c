package ai

import (
	_ "embed"
	"strings"
	"text/template"
)

var (
	//go:embed prompts/summary_system.txt
	summarySystem string
	//go:embed prompts/summary_user.tmpl
	summaryUserText string
	//go:embed prompts/work_experience_system.txt
	workExperienceSystem string
)

var summaryUser = template.Must(template.New("summary").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(summaryUserText))

func renderSummaryPrompt(in SummaryInput) (string, error) {
	var b strings.Builder
	if err := summaryUser.Execute(&b, in); err != nil {
		return "", err
	}
	return b.String(), nil
}
