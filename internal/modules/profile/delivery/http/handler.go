package handler

import (
	"io"
	"net/http"
	"strings"

	profileDto "anoa.com/p2pcomm/internal/modules/profile/dto"
	profile "anoa.com/p2pcomm/internal/modules/profile/service"
	"anoa.com/p2pcomm/pkg/response"
	"anoa.com/p2pcomm/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.profileService.GetCurrentProfile(c.Request.Context(), userID.String())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.UpdateProfileInput
	var avatar *profileDto.AvatarUpload

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}

		if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read avatar upload"})
				return
			}
			defer file.Close()

			// One extra byte so the service can tell "exactly at the cap"
			// from "over it".
			data, err := io.ReadAll(io.LimitReader(file, profile.MaxAvatarBytes+1))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read avatar upload"})
				return
			}

			avatar = &profileDto.AvatarUpload{
				Data:        data,
				ContentType: fileHeader.Header.Get("Content-Type"),
				FileName:    fileHeader.Filename,
			}
		}
	} else {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}
	}

	if avatar == nil && input.AvatarBase64 != nil && *input.AvatarBase64 != "" {
		decoded, err := profile.DecodeBase64Avatar(*input.AvatarBase64)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		avatar = decoded
	}

	res, err := h.profileService.UpdateProfile(c.Request.Context(), userID.String(), input, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	res, err := h.profileService.GetPublicProfile(c.Request.Context(), username)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) GetAvatar(c *gin.Context) {
	username := c.Param("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	avatar, err := h.profileService.GetAvatar(c.Request.Context(), username)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Data(http.StatusOK, avatar.ContentType, avatar.Data)
}
