// Package ai generates resume text for paid tiers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bads1de/CareerRise/internal/llm"
	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/resumes"
	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// MinDescriptionLength is the shortest description accepted for work experience generation.
const MinDescriptionLength = 20

// TierResolver returns the caller's subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) (permissions.Tier, error)
}

// SummaryInput is the resume data a summary is written from.
type SummaryInput struct {
	JobTitle        string                   `json:"jobTitle"`
	WorkExperiences []resumes.WorkExperience `json:"workExperiences"`
	Educations      []resumes.Education      `json:"educations"`
	Skills          []string                 `json:"skills"`
}

// WorkExperienceInput is a free-text description of one job.
type WorkExperienceInput struct {
	Description string `json:"description"`
}

type Service struct {
	LLM   llm.Client
	Tiers TierResolver
}

func NewService(client llm.Client, tiers TierResolver) *Service {
	return &Service{LLM: client, Tiers: tiers}
}

// GenerateSummary writes a professional summary for the caller's resume.
func (s *Service) GenerateSummary(ctx context.Context, userID string, in SummaryInput) (string, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return "", err
	}
	prompt, err := renderSummaryPrompt(in)
	if err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	text, err := s.complete(ctx, "summary", userID, summarySystem, prompt)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateWorkExperience turns a free-text description into a structured entry.
func (s *Service) GenerateWorkExperience(ctx context.Context, userID string, in WorkExperienceInput) (resumes.WorkExperience, error) {
	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) < MinDescriptionLength {
		return resumes.WorkExperience{}, apperr.Invalid("description", fmt.Sprintf("must be at least %d characters", MinDescriptionLength))
	}
	if err := s.authorize(ctx, userID); err != nil {
		return resumes.WorkExperience{}, err
	}
	prompt := "Please provide a work experience entry from this description:\n" + desc
	text, err := s.complete(ctx, "work_experience", userID, workExperienceSystem, prompt)
	if err != nil {
		return resumes.WorkExperience{}, err
	}
	return parseWorkExperience(text), nil
}

func (s *Service) authorize(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrUnauthenticated
	}
	tier := permissions.Free
	if s.Tiers != nil {
		var err error
		tier, err = s.Tiers.TierFor(ctx, userID)
		if err != nil {
			return err
		}
	}
	if !permissions.CanUseAITools(tier) {
		return apperr.Denied("AI tools require a paid plan")
	}
	return nil
}

func (s *Service) complete(ctx context.Context, kind, userID, system, prompt string) (string, error) {
	client := s.LLM
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	text, err := client.Complete(ctx, system, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty response", apperr.ErrGeneration)
	}
	metrics.IncAIGeneration(kind, err)
	if err != nil {
		telemetry.Warn("ai.generation_failed", map[string]any{"kind": kind, "user_id": userID, "error": err.Error()})
		if errors.Is(err, apperr.ErrGeneration) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}
	return strings.TrimSpace(text), nil
}
