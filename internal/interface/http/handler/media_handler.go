package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/storage"
)

const photoFormField = "file"

type MediaHandler struct {
	photos *storage.PhotoStorage
	maxMB  int64
}

func NewMediaHandler(photos *storage.PhotoStorage, maxUploadMB int64) *MediaHandler {
	return &MediaHandler{photos: photos, maxMB: maxUploadMB}
}

// UploadDamagePhoto принимает multipart поле "file" и возвращает ref для imageRefs возврата.
func (h *MediaHandler) UploadDamagePhoto(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	// Запас на служебные части multipart.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, (h.maxMB+1)*1024*1024)

	fileHeader, err := c.FormFile(photoFormField)
	if err != nil {
		response.Error(c, apperror.Validation("файл не найден в поле "+photoFormField))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось открыть файл"))
		return
	}
	defer src.Close()

	photo, err := h.photos.SaveDamagePhoto(c.Request.Context(), actor.ID, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.DamagePhotoResponse{
		Ref:         photo.Ref,
		ContentType: photo.ContentType,
		Size:        photo.Size,
	})
}
