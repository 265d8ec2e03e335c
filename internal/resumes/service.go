package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/storage/object"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/shared/util"
)

// TierResolver returns the caller's current subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) (permissions.Tier, error)
}

// PhotoCleaner removes stored photos that no resume references anymore.
type PhotoCleaner interface {
	ScheduleDelete(ctx context.Context, userID, url, reason string) error
}

type Service struct {
	Repo    Repo
	Store   object.ObjectStore
	Tiers   TierResolver
	Cleaner PhotoCleaner
}

// Save validates and persists a snapshot for userID, creating a resume when
// the snapshot has no id and replacing the owned resume otherwise.
func (s *Service) Save(ctx context.Context, userID string, in Snapshot) (saved Resume, err error) {
	op := "create"
	if strings.TrimSpace(in.ID) != "" {
		op = "update"
	}
	start := time.Now()
	defer func() { metrics.ObserveSave(op, err, time.Since(start)) }()

	snap := in.Clone()
	snap.Normalize()
	if err := snap.Validate(); err != nil {
		return Resume{}, err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Resume{}, apperr.ErrUnauthenticated
	}
	if s.Repo == nil || s.Tiers == nil {
		return Resume{}, errors.New("resumes service not configured")
	}

	tier, err := s.Tiers.TierFor(ctx, userID)
	if err != nil {
		return Resume{}, fmt.Errorf("resolve tier: %w", err)
	}

	var existing *Resume
	if snap.ID == "" {
		count, err := s.Repo.CountByOwner(ctx, userID)
		if err != nil {
			return Resume{}, apperr.Transient("count resumes", err)
		}
		if !permissions.CanCreateResume(tier, count) {
			return Resume{}, apperr.Denied(fmt.Sprintf("maximum resume count reached for %s plan", tier))
		}
	} else {
		found, err := s.Repo.FindByIDAndOwner(ctx, snap.ID, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Resume{}, err
			}
			return Resume{}, apperr.Transient("load resume", err)
		}
		existing = &found
	}

	if customizationChanged(snap.Content, existing) && !permissions.CanUseCustomizations(tier) {
		return Resume{}, apperr.Denied(fmt.Sprintf("customizations are not allowed for %s plan", tier))
	}
	content := applyCustomizationDefaults(snap.Content, existing)

	photoURL, uploaded, err := s.resolvePhoto(ctx, userID, snap.Photo, existing)
	if err != nil {
		return Resume{}, err
	}

	record := Resume{ID: snap.ID, UserID: userID, PhotoURL: photoURL, Content: content}
	if existing == nil {
		saved, err = s.Repo.Create(ctx, record)
	} else {
		saved, err = s.Repo.Update(ctx, record)
	}
	if err != nil {
		if uploaded != "" {
			s.scheduleCleanup(ctx, userID, uploaded, "persist_failed")
		}
		if errors.Is(err, ErrNotFound) {
			return Resume{}, err
		}
		return Resume{}, apperr.Transient("persist resume", err)
	}

	telemetry.Info("resume.saved", map[string]any{
		"resume_id":      saved.ID,
		"user_id":        userID,
		"op":             op,
		"tier":           string(tier),
		"photo_uploaded": uploaded != "",
	})
	return saved, nil
}

// Get returns an owned resume.
func (s *Service) Get(ctx context.Context, userID, id string) (Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return Resume{}, apperr.ErrUnauthenticated
	}
	return s.Repo.FindByIDAndOwner(ctx, id, userID)
}

// List returns the caller's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Resume, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.ErrUnauthenticated
	}
	return s.Repo.ListByOwner(ctx, userID)
}

// Delete removes an owned resume together with its stored photo.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.ErrUnauthenticated
	}
	existing, err := s.Repo.FindByIDAndOwner(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	if existing.PhotoURL != nil {
		s.deletePhoto(ctx, userID, *existing.PhotoURL)
	}
	telemetry.Info("resume.deleted", map[string]any{"resume_id": id, "user_id": userID})
	return nil
}

// resolvePhoto applies the photo field and returns the URL to persist plus
// the URL of any object uploaded during this call.
func (s *Service) resolvePhoto(ctx context.Context, userID string, p Photo, existing *Resume) (*string, string, error) {
	var current *string
	if existing != nil {
		current = existing.PhotoURL
	}
	switch p.Kind {
	case PhotoFile:
		if s.Store == nil {
			return nil, "", ErrStoreNotConfigured
		}
		if current != nil {
			s.deletePhoto(ctx, userID, *current)
		}
		url, err := s.Store.Put(ctx, photoKey(userID, p.File), p.File.Type, bytes.NewReader(p.File.Data))
		metrics.IncPhotoOp("upload", err)
		if err != nil {
			return nil, "", apperr.Transient("upload photo", err)
		}
		return &url, url, nil
	case PhotoRemove:
		if current != nil {
			s.deletePhoto(ctx, userID, *current)
		}
		return nil, "", nil
	default:
		return current, "", nil
	}
}

func (s *Service) deletePhoto(ctx context.Context, userID, url string) {
	if s.Store == nil {
		s.scheduleCleanup(ctx, userID, url, "store_unavailable")
		return
	}
	err := s.Store.Delete(ctx, url)
	metrics.IncPhotoOp("delete", err)
	if err != nil {
		telemetry.Warn("resume.photo_delete_failed", map[string]any{"user_id": userID, "url": url, "error": err})
		s.scheduleCleanup(ctx, userID, url, "delete_failed")
	}
}

func (s *Service) scheduleCleanup(ctx context.Context, userID, url, reason string) {
	if s.Cleaner == nil {
		telemetry.Warn("resume.photo_orphaned", map[string]any{"user_id": userID, "url": url, "reason": reason})
		return
	}
	if err := s.Cleaner.ScheduleDelete(ctx, userID, url, reason); err != nil {
		telemetry.Error("resume.photo_cleanup_schedule_failed", map[string]any{"user_id": userID, "url": url, "reason": reason, "error": err})
	}
}

func customizationChanged(in Content, existing *Resume) bool {
	border, color := DefaultBorderStyle, DefaultColorHex
	if existing != nil {
		border, color = existing.BorderStyle, existing.ColorHex
	}
	if in.BorderStyle != "" && in.BorderStyle != border {
		return true
	}
	return in.ColorHex != "" && !strings.EqualFold(in.ColorHex, color)
}

func applyCustomizationDefaults(in Content, existing *Resume) Content {
	out := in
	if out.BorderStyle == "" {
		out.BorderStyle = DefaultBorderStyle
		if existing != nil && existing.BorderStyle != "" {
			out.BorderStyle = existing.BorderStyle
		}
	}
	if out.ColorHex == "" {
		out.ColorHex = DefaultColorHex
		if existing != nil && existing.ColorHex != "" {
			out.ColorHex = existing.ColorHex
		}
	}
	return out
}

func photoKey(userID string, f *FileUpload) string {
	return util.ObjectKey(photoPrefix, userID, f.Name, f.Type)
}
