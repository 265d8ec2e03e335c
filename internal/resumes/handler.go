package resumes

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/server/middleware"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
)

const maxRequestSize = maxPhotoBytes + 1<<20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.save)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.DELETE("/resumes/:id", h.delete)
}

func (h *Handler) save(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

	snap, err := readSnapshot(c)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	resume, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), snap)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("resumeId", resume.ID)

	respond.Saved(c, snap.ID == "", resume)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, listResponse{Resumes: list, Count: len(list)})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("resumeId", id)
	resume, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, resume)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("resumeId", id)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.NoContent(c)
}

// readSnapshot accepts either a JSON body or a multipart form with a JSON
// "payload" field and an optional "photo" file.
func readSnapshot(c *gin.Context) (Snapshot, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return Snapshot{}, tooLargeOr(err, "body", "unable to read body")
		}
		return decodeSaveRequest(body)
	}

	if err := c.Request.ParseMultipartForm(maxRequestSize); err != nil {
		return Snapshot{}, tooLargeOr(err, "body", "invalid multipart form")
	}
	payload := c.PostForm("payload")
	if payload == "" {
		return Snapshot{}, apperr.Invalid("payload", "is required")
	}
	snap, err := decodeSaveRequest([]byte(payload))
	if err != nil {
		return Snapshot{}, err
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return snap, nil
		}
		return Snapshot{}, tooLargeOr(err, "photo", "unable to read file")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return Snapshot{}, apperr.Invalid("photo", "unable to read file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return Snapshot{}, apperr.Invalid("photo", "unable to read file")
	}
	lastModified, _ := strconv.ParseInt(c.PostForm("photoLastModified"), 10, 64)
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		// sniffed in Normalize
		contentType = ""
	}
	snap.Photo = PhotoUpload(&FileUpload{
		Name:         fileHeader.Filename,
		Size:         fileHeader.Size,
		Type:         contentType,
		LastModified: lastModified,
		Data:         data,
	})
	return snap, nil
}

func tooLargeOr(err error, field, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.Invalid(field, "request too large")
	}
	return apperr.Invalid(field, msg)
}
