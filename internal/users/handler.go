package users

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/shared/server/middleware"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
)

// TierResolver returns the caller's subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID string) (permissions.Tier, error)
}

type Handler struct {
	Svc   *Service
	Tiers TierResolver
}

func NewHandler(svc *Service, tiers TierResolver) *Handler {
	return &Handler{Svc: svc, Tiers: tiers}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type meResponse struct {
	ID          string           `json:"id"`
	Email       string           `json:"email,omitempty"`
	FullName    string           `json:"fullName,omitempty"`
	PictureURL  string           `json:"pictureUrl,omitempty"`
	Tier        permissions.Tier `json:"tier"`
	MaxResumes  int              `json:"maxResumes"`
	AITools     bool             `json:"aiTools"`
	Customizing bool             `json:"customizations"`
}

func (h *Handler) me(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		// identity from the token is enough when the profile row is missing
		user = User{
			ID:         userID,
			Email:      middleware.UserEmailFromContext(c),
			FullName:   middleware.UserNameFromContext(c),
			PictureURL: middleware.UserPictureFromContext(c),
		}
	} else if err != nil {
		respond.FromError(c, err)
		return
	}

	tier := permissions.Free
	if h.Tiers != nil {
		tier, err = h.Tiers.TierFor(ctx, userID)
		if err != nil {
			respond.FromError(c, err)
			return
		}
	}

	respond.OK(c, meResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		PictureURL:  user.PictureURL,
		Tier:        tier,
		MaxResumes:  permissions.MaxResumes(tier),
		AITools:     permissions.CanUseAITools(tier),
		Customizing: permissions.CanUseCustomizations(tier),
	})
}
