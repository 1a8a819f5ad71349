package profile

import (
	"encoding/base64"
	"net/http"
	"strings"

	profileDto "anoa.com/p2pcomm/internal/modules/profile/dto"
	"anoa.com/p2pcomm/pkg/apperror"
)

// MaxAvatarBytes caps stored avatar images at 2 MiB.
const MaxAvatarBytes = 2 << 20

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DecodeBase64Avatar turns a base64 payload, optionally prefixed with a
// "data:<mime>;base64," header, into an AvatarUpload.
func DecodeBase64Avatar(payload string) (*profileDto.AvatarUpload, error) {
	declared := ""
	encoded := payload

	if strings.HasPrefix(payload, "data:") {
		header, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, apperror.Validation("avatar", "Malformed base64 avatar payload.")
		}
		meta := strings.TrimPrefix(header, "data:")
		meta = strings.TrimSuffix(meta, ";base64")
		declared = strings.ToLower(strings.TrimSpace(meta))
		encoded = rest
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, apperror.Validation("avatar", "Malformed base64 avatar payload.")
	}

	return &profileDto.AvatarUpload{
		Data:        data,
		ContentType: declared,
	}, nil
}

// validateAvatar enforces the size cap and the jpeg/png/webp allow-list,
// returning the content type to store. When no type is declared it is
// sniffed from the leading bytes.
func validateAvatar(upload *profileDto.AvatarUpload) (string, error) {
	if len(upload.Data) == 0 {
		return "", apperror.Validation("avatar", "Avatar payload is empty.")
	}
	if len(upload.Data) > MaxAvatarBytes {
		return "", apperror.Validation("avatar", "Avatar must be at most 2 MiB.")
	}

	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if ct, _, found := strings.Cut(contentType, ";"); found {
		contentType = strings.TrimSpace(ct)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(upload.Data)
	}

	if !allowedAvatarTypes[contentType] {
		return "", apperror.Validation("avatar", "Avatar must be a JPEG, PNG or WebP image.")
	}

	return contentType, nil
}
