package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bads1de/CareerRise/internal/llm"
	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/resumes"
	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/server/middleware"
)

type fixedTier permissions.Tier

func (f fixedTier) TierFor(context.Context, string) (permissions.Tier, error) {
	return permissions.Tier(f), nil
}

type recordingLLM struct {
	system, user string
	reply        string
	err          error
	calls        int
}

func (r *recordingLLM) Complete(_ context.Context, system, user string) (string, error) {
	r.calls++
	r.system, r.user = system, user
	return r.reply, r.err
}

func TestGenerateSummaryBuildsPrompt(t *testing.T) {
	model := &recordingLLM{reply: "  Seasoned engineer.  "}
	svc := NewService(model, fixedTier(permissions.Pro))

	got, err := svc.GenerateSummary(context.Background(), "u1", SummaryInput{
		JobTitle:        "Backend Engineer",
		WorkExperiences: []resumes.WorkExperience{{Position: "Engineer", Company: "Acme", StartDate: "2020-01-01", Description: "Built APIs"}},
		Educations:      []resumes.Education{{Degree: "BSc", School: "Tech"}},
		Skills:          []string{"Go", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Seasoned engineer.", got)
	assert.Equal(t, summarySystem, model.system)
	assert.Contains(t, model.user, "Job title: Backend Engineer")
	assert.Contains(t, model.user, "Position: Engineer at Acme (2020-01-01 to present)")
	assert.Contains(t, model.user, "Degree: BSc at Tech (N/A to N/A)")
	assert.Contains(t, model.user, "Skills: Go, SQL")
}

func TestGenerateSummaryRequiresPaidTier(t *testing.T) {
	model := &recordingLLM{reply: "text"}
	svc := NewService(model, fixedTier(permissions.Free))

	_, err := svc.GenerateSummary(context.Background(), "u1", SummaryInput{})
	assert.ErrorIs(t, err, apperr.ErrPermission)
	assert.Equal(t, 0, model.calls)
}

func TestGenerateSummaryEmptyReply(t *testing.T) {
	svc := NewService(&recordingLLM{reply: "   "}, fixedTier(permissions.ProPlus))

	_, err := svc.GenerateSummary(context.Background(), "u1", SummaryInput{JobTitle: "x"})
	assert.ErrorIs(t, err, apperr.ErrGeneration)
}

func TestGenerateSummaryProviderFailure(t *testing.T) {
	svc := NewService(&recordingLLM{err: errors.New("upstream 500")}, fixedTier(permissions.Pro))

	_, err := svc.GenerateSummary(context.Background(), "u1", SummaryInput{})
	assert.ErrorIs(t, err, apperr.ErrGeneration)

	svc.LLM = nil
	_, err = svc.GenerateSummary(context.Background(), "u1", SummaryInput{})
	assert.ErrorIs(t, err, apperr.ErrGeneration, "unconfigured provider")
}

func TestGenerateWorkExperience(t *testing.T) {
	model := &recordingLLM{reply: "Job title: Platform Engineer\nCompany: Acme\nStart date: 2021-04-01\nEnd date: soon\nDescription: Ran the platform.\n- Cut deploy time: 40%\n"}
	svc := NewService(model, fixedTier(permissions.Pro))

	_, err := svc.GenerateWorkExperience(context.Background(), "u1", WorkExperienceInput{Description: "too short"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, model.calls)

	exp, err := svc.GenerateWorkExperience(context.Background(), "u1", WorkExperienceInput{Description: "I ran the platform team at Acme since 2021"})
	require.NoError(t, err)
	assert.Equal(t, resumes.WorkExperience{
		Position:    "Platform Engineer",
		Company:     "Acme",
		StartDate:   "2021-04-01",
		Description: "Ran the platform.\n- Cut deploy time: 40%",
	}, exp)
	assert.Contains(t, model.user, "since 2021")
}

func TestParseWorkExperienceIgnoresUnknownLines(t *testing.T) {
	got := parseWorkExperience("Sure! Here it is:\n**Job title:** Analyst\nCompany:Beta\n")
	assert.Equal(t, "Analyst", strings.Trim(got.Position, "* "))
	assert.Equal(t, "Beta", got.Company)
	assert.Empty(t, got.Description)
}

func TestHandlerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.WithIdentity(c, middleware.Identity{UserID: "u1"}); c.Next() })
	NewHandler(NewService(llm.ClientFunc(func(context.Context, string, string) (string, error) {
		return "Job title: Lead\nDescription: Led things.", nil
	}), fixedTier(permissions.Pro))).RegisterRoutes(r.Group("/api/v1"))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	resp := post("/api/v1/ai/summary", `{"jobTitle":"Lead","skills":["Go"]}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var summary map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.NotEmpty(t, summary["summary"])

	resp = post("/api/v1/ai/work-experience", `{"description":"Led the backend team for five years"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out struct {
		WorkExperience resumes.WorkExperience `json:"workExperience"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "Lead", out.WorkExperience.Position)

	resp = post("/api/v1/ai/summary", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
