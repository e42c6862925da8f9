package admins

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const uploadPrefix = "customer_service/"

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// POST /v3/admin/uploads/image
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: utils.ErrStorageNotConfigured.Error()})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.WriteJSON(w, http.StatusRequestEntityTooLarge, utils.APIResponse{Success: false, Message: "File too large"})
			return
		}
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := allowedImageTypes[ext]
	if !ok {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Only jpg, jpeg, png and webp images are allowed"})
		return
	}

	objectName := uploadPrefix + uuid.NewString() + ext
	url, err := h.uploader.Upload(r.Context(), objectName, file, contentType)
	if err != nil {
		h.log.Error("image upload failed", zap.String("object", objectName), zap.Error(err))
		utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Upload failed"})
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Uploaded",
		Data: map[string]interface{}{
			"url":    url,
			"object": objectName,
			"size":   header.Size,
		},
	})
}
