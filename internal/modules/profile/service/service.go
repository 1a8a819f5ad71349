package profile

import (
	"context"
	"errors"
	"strings"

	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/entity"
	profileDto "anoa.com/p2pcomm/internal/modules/profile/dto"
	userRepo "anoa.com/p2pcomm/internal/modules/user/repository"
	"anoa.com/p2pcomm/pkg/apperror"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarUpload) (*profileDto.ProfileResponse, error)
	GetPublicProfile(ctx context.Context, username string) (*profileDto.ProfileResponse, error)
	GetAvatar(ctx context.Context, username string) (*profileDto.Avatar, error)
}

type profileService struct {
	repo          userRepo.UserRepository
	collegeDomain string
	sanitizer     *bluemonday.Policy
}

func NewProfileService(cfg *config.Config, repo userRepo.UserRepository) ProfileService {
	return &profileService{
		repo:          repo,
		collegeDomain: strings.ToLower(cfg.CollegeDomain),
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID string) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile, err := s.repo.EnsureProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	return buildProfileResponse(user, profile, true), nil
}

// UpdateProfile applies a partial patch across the User and Profile rows and
// persists both in one transaction.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, input profileDto.UpdateProfileInput, avatar *profileDto.AvatarUpload) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile, err := s.repo.EnsureProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.applyUserPatch(ctx, user, input); err != nil {
		return nil, err
	}

	s.applyProfilePatch(profile, input)

	if avatar != nil {
		contentType, err := validateAvatar(avatar)
		if err != nil {
			return nil, err
		}
		profile.AvatarData = avatar.Data
		profile.AvatarContentType = contentType
		profile.AvatarFileName = avatar.FileName
		profile.AvatarSize = int64(len(avatar.Data))
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		return nil, err
	}

	return buildProfileResponse(user, profile, true), nil
}

func (s *profileService) GetPublicProfile(ctx context.Context, username string) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	profile, err := s.repo.EnsureProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	return buildProfileResponse(user, profile, false), nil
}

func (s *profileService) GetAvatar(ctx context.Context, username string) (*profileDto.Avatar, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if user.Profile == nil || !user.Profile.HasAvatar() {
		return nil, apperror.ErrNotFound
	}

	return &profileDto.Avatar{
		Data:        user.Profile.AvatarData,
		ContentType: user.Profile.AvatarContentType,
	}, nil
}

func (s *profileService) applyUserPatch(ctx context.Context, user *entity.User, input profileDto.UpdateProfileInput) error {
	if input.Username != nil && *input.Username != "" && *input.Username != user.Username {
		sanitized := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if len(sanitized) < 3 {
			return apperror.Validation("username", "Username must be at least 3 characters.")
		}
		if len(sanitized) > 50 {
			return apperror.Validation("username", "Username must be at most 50 characters.")
		}
		if sanitized != user.Username {
			taken, err := s.repo.UsernameExists(ctx, sanitized)
			if err != nil {
				return err
			}
			if taken {
				return apperror.Validation("username", "Username already taken.")
			}
			user.Username = sanitized
		}
	}

	if input.SecondaryEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*input.SecondaryEmail))
		if email == "" {
			user.SecondaryEmail = nil
		} else {
			if strings.HasSuffix(email, s.collegeDomain) {
				return apperror.Validation("secondary_email", "Secondary email must be a non-college personal email.")
			}
			user.SecondaryEmail = &email
		}
	}

	if input.Batch != nil {
		user.Batch = strings.TrimSpace(*input.Batch)
	}

	if input.IsCurrentStudent != nil {
		user.IsCurrentStudent = *input.IsCurrentStudent
	}

	if input.FullName != nil {
		user.FullName = s.sanitizer.Sanitize(strings.TrimSpace(*input.FullName))
	}

	return nil
}

func (s *profileService) applyProfilePatch(profile *entity.Profile, input profileDto.UpdateProfileInput) {
	if input.Headline != nil {
		profile.Headline = s.normalizeOptional(input.Headline)
	}
	if input.About != nil {
		profile.About = s.normalizeOptional(input.About)
	}
	if input.Location != nil {
		profile.Location = s.normalizeOptional(input.Location)
	}
	if input.Experiences != nil {
		experiences := make(entity.ExperienceList, 0, len(*input.Experiences))
		for _, exp := range *input.Experiences {
			exp.Title = s.sanitizer.Sanitize(exp.Title)
			exp.Company = s.sanitizer.Sanitize(exp.Company)
			exp.Description = s.sanitizer.Sanitize(exp.Description)
			experiences = append(experiences, exp)
		}
		profile.Experiences = experiences
	}
	if input.Links != nil {
		links := make(entity.LinkList, 0, len(*input.Links))
		for _, link := range *input.Links {
			link.Label = s.sanitizer.Sanitize(link.Label)
			links = append(links, link)
		}
		profile.Links = links
	}
}

func (s *profileService) normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := s.sanitizer.Sanitize(strings.TrimSpace(*value))
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

// buildProfileResponse merges the User and Profile rows into the serialized
// shape. The public view drops secondary_email; everything else is shared.
func buildProfileResponse(user *entity.User, profile *entity.Profile, includePrivate bool) *profileDto.ProfileResponse {
	res := &profileDto.ProfileResponse{
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName,
		Batch:            user.Batch,
		IsCurrentStudent: user.IsCurrentStudent,
		Headline:         profile.Headline,
		About:            profile.About,
		Location:         profile.Location,
		Experiences:      profile.Experiences,
		Links:            profile.Links,
		UpdatedAt:        profile.UpdatedAt,
	}

	if includePrivate {
		res.SecondaryEmail = user.SecondaryEmail
	}

	if res.Experiences == nil {
		res.Experiences = entity.ExperienceList{}
	}
	if res.Links == nil {
		res.Links = entity.LinkList{}
	}

	if profile.HasAvatar() {
		url := "/api/profile/" + user.Username + "/avatar"
		res.AvatarURL = &url
	}

	return res
}
