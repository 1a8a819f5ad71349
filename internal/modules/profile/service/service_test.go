package profile

import (
	"context"
	"strings"
	"testing"
	"time"

	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/entity"
	profileDto "anoa.com/p2pcomm/internal/modules/profile/dto"
	"anoa.com/p2pcomm/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory stand-in for the user repository, covering only
// what the profile service touches.
type fakeRepo struct {
	users map[string]*entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*entity.User)}
}

func (f *fakeRepo) addUser(username, email string, withProfile bool) *entity.User {
	user := &entity.User{
		ID:               uuid.New(),
		Username:         username,
		Email:            email,
		IsCurrentStudent: true,
		PasswordHash:     "x",
	}
	if withProfile {
		user.Profile = &entity.Profile{UserID: user.ID, UpdatedAt: time.Now()}
	}
	f.users[user.ID.String()] = user
	return user
}

func (f *fakeRepo) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	if profile != nil {
		profile.UserID = user.ID
		user.Profile = profile
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeRepo) Update(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	if profile != nil {
		user.Profile = profile
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeRepo) EnsureProfile(ctx context.Context, user *entity.User) (*entity.Profile, error) {
	if user.Profile == nil {
		user.Profile = &entity.Profile{UserID: user.ID}
	}
	return user.Profile, nil
}

func (f *fakeRepo) FindAll(ctx context.Context) ([]*entity.User, error) {
	users := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func newTestService(repo *fakeRepo) ProfileService {
	cfg := &config.Config{CollegeDomain: "@iiitbh.ac.in"}
	return NewProfileService(cfg, repo)
}

func strPtr(s string) *string { return &s }

// pngBytes is a minimal payload that sniffs as image/png.
func pngBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, "\x89PNG\r\n\x1a\n")
	return data
}

func TestGetCurrentProfile_LazilyCreatesProfile(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", false)
	svc := newTestService(repo)

	res, err := svc.GetCurrentProfile(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "jdoe.1x2y", res.Username)
	assert.Equal(t, "jdoe@iiitbh.ac.in", res.Email)
	assert.Nil(t, res.AvatarURL)
	assert.NotNil(t, res.Experiences)
	assert.NotNil(t, res.Links)
	require.NotNil(t, user.Profile, "profile row must exist after first read")
}

func TestGetCurrentProfile_UnknownUser(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetCurrentProfile(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfile_PartialPatchKeepsOtherFields(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{Headline: strPtr("X")}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Headline)
	assert.Equal(t, "X", *res.Headline)

	res, err = svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{Location: strPtr("Patna")}, nil)
	require.NoError(t, err)

	require.NotNil(t, res.Headline, "patching location must not clear headline")
	assert.Equal(t, "X", *res.Headline)
	require.NotNil(t, res.Location)
	assert.Equal(t, "Patna", *res.Location)
}

func TestUpdateProfile_StripsHTMLFromFreeText(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{About: strPtr("<b>hello</b> world")}, nil)
	require.NoError(t, err)

	require.NotNil(t, res.About)
	assert.Equal(t, "hello world", *res.About)
}

func TestUpdateProfile_ExperiencesAndLinksRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	experiences := entity.ExperienceList{
		{Title: "Intern", Company: "ACME", StartDate: "2023-05", EndDate: "2023-08"},
		{Title: "TA", Company: "IIIT Bhagalpur"},
	}
	links := entity.LinkList{{Label: "GitHub", URL: "https://github.com/jdoe"}}

	res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{Experiences: &experiences, Links: &links}, nil)
	require.NoError(t, err)

	require.Len(t, res.Experiences, 2)
	assert.Equal(t, "Intern", res.Experiences[0].Title)
	assert.Equal(t, "TA", res.Experiences[1].Title)
	require.Len(t, res.Links, 1)
	assert.Equal(t, "https://github.com/jdoe", res.Links[0].URL)
}

func TestUpdateProfile_UsernameRules(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	repo.addUser("taken.name", "other@iiitbh.ac.in", true)
	svc := newTestService(repo)

	t.Run("collision with another user fails", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{Username: strPtr("taken.name")}, nil)

		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields["username"], "taken")
	})

	t.Run("own current username is a no-op", func(t *testing.T) {
		res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{Username: strPtr("jdoe.1x2y")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "jdoe.1x2y", res.Username)
	})

	t.Run("fresh username is applied", func(t *testing.T) {
		res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{Username: strPtr("john doe")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "john_doe", res.Username)
	})
}

func TestUpdateProfile_SecondaryEmailPolicy(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	t.Run("college domain rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{SecondaryEmail: strPtr("jdoe2@iiitbh.ac.in")}, nil)

		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields["secondary_email"], "non-college")
	})

	t.Run("personal address accepted and normalized", func(t *testing.T) {
		res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{SecondaryEmail: strPtr("JDoe@Gmail.com")}, nil)
		require.NoError(t, err)
		require.NotNil(t, res.SecondaryEmail)
		assert.Equal(t, "jdoe@gmail.com", *res.SecondaryEmail)
	})
}

func TestUpdateProfile_AvatarRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	data := pngBytes(256)
	res, err := svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{},
		&profileDto.AvatarUpload{Data: data, ContentType: "image/png", FileName: "me.png"})
	require.NoError(t, err)
	require.NotNil(t, res.AvatarURL)
	assert.Equal(t, "/api/profile/jdoe.1x2y/avatar", *res.AvatarURL)

	avatar, err := svc.GetAvatar(context.Background(), "jdoe.1x2y")
	require.NoError(t, err)
	assert.Equal(t, data, avatar.Data)
	assert.Equal(t, "image/png", avatar.ContentType)
}

func TestUpdateProfile_AvatarValidation(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	stored := pngBytes(64)
	_, err := svc.UpdateProfile(context.Background(), user.ID.String(),
		profileDto.UpdateProfileInput{},
		&profileDto.AvatarUpload{Data: stored, ContentType: "image/png"})
	require.NoError(t, err)

	t.Run("oversized upload rejected, stored avatar untouched", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{},
			&profileDto.AvatarUpload{Data: pngBytes(MaxAvatarBytes + 1), ContentType: "image/png"})

		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields["avatar"], "2 MiB")

		avatar, err := svc.GetAvatar(context.Background(), "jdoe.1x2y")
		require.NoError(t, err)
		assert.Equal(t, stored, avatar.Data)
	})

	t.Run("unsupported content type rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), user.ID.String(),
			profileDto.UpdateProfileInput{},
			&profileDto.AvatarUpload{Data: []byte("GIF89a..."), ContentType: "image/gif"})

		var ve *apperror.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields["avatar"], "JPEG, PNG or WebP")
	})
}

func TestGetAvatar_NotFoundCases(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	svc := newTestService(repo)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.GetAvatar(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("no avatar set", func(t *testing.T) {
		_, err := svc.GetAvatar(context.Background(), "jdoe.1x2y")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestGetPublicProfile(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("jdoe.1x2y", "jdoe@iiitbh.ac.in", true)
	secondary := "jdoe@gmail.com"
	user.SecondaryEmail = &secondary
	svc := newTestService(repo)

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.GetPublicProfile(context.Background(), "ghost")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("defaults for an uncustomized profile", func(t *testing.T) {
		res, err := svc.GetPublicProfile(context.Background(), "jdoe.1x2y")
		require.NoError(t, err)
		assert.Equal(t, "jdoe.1x2y", res.Username)
		assert.Nil(t, res.Headline)
		assert.Empty(t, res.Experiences)
		assert.Nil(t, res.AvatarURL)
	})

	t.Run("secondary email is redacted", func(t *testing.T) {
		res, err := svc.GetPublicProfile(context.Background(), "jdoe.1x2y")
		require.NoError(t, err)
		assert.Nil(t, res.SecondaryEmail)
	})
}
