package handlers

// 用户资料端点：当前用户信息与头像上传。

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"contactbook/internal/metrics"
)

// 上传头像的大小上限（字节）。
const maxAvatarSize = 5 << 20

func (h *Handler) me(c *gin.Context) {
	setNoCache(c)
	c.JSON(200, profileOf(currentUser(c)))
}

// updateAvatar 接收 multipart 字段 file，上传到对象存储并更新用户头像地址。
func (h *Handler) updateAvatar(c *gin.Context) {
	u := currentUser(c)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": "file field required"})
		return
	}
	if fh.Size > maxAvatarSize {
		c.JSON(422, gin.H{"error": "file_too_large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.avatars.Upload(c, u.ID, fh.Filename, contentType, f, fh.Size)
	if err != nil {
		log.WithError(err).WithField("user_id", u.ID).Error("upload avatar")
		metrics.AvatarUploads.WithLabelValues("error").Inc()
		c.JSON(500, gin.H{"error": "upload_failed"})
		return
	}
	updated, err := h.userSvc.UpdateAvatar(c, u.Email, url)
	if err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	metrics.AvatarUploads.WithLabelValues("ok").Inc()
	c.JSON(200, profileOf(updated))
}
