package service

import (
	"context"
	"strings"
	"sync"

	"anoa.com/p2pcomm/internal/entity"
	"gorm.io/gorm"
)

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// A hand-written fake keeps the tests readable and free of DB plumbing.
type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*entity.User // keyed by ID string
	roles    map[string]*entity.Role
	nextRole uint

	createErr error
	deleteErr error
}

func newFakeUserRepo() *fakeUserRepo {
	f := &fakeUserRepo{
		users: make(map[string]*entity.User),
		roles: make(map[string]*entity.Role),
	}
	f.addRole(entity.RoleStaff)
	f.addRole(entity.RoleStudent)
	return f
}

func (f *fakeUserRepo) addRole(name string) {
	f.nextRole++
	f.roles[name] = &entity.Role{ID: f.nextRole, Name: name}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	if profile != nil {
		profile.UserID = user.ID
		user.Profile = profile
	}
	if user.RoleID != nil {
		for _, role := range f.roles {
			if role.ID == *user.RoleID {
				user.Role = *role
			}
		}
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	if role, ok := f.roles[name]; ok {
		return role, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile != nil {
		user.Profile = profile
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) EnsureProfile(ctx context.Context, user *entity.User) (*entity.Profile, error) {
	if user.Profile != nil {
		return user.Profile, nil
	}
	profile := &entity.Profile{UserID: user.ID}
	user.Profile = profile
	return profile, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

// fakeMailer records credential mails; fail makes delivery error out.
type fakeMailer struct {
	mu       sync.Mutex
	fail     error
	to       []string
	username string
	password string
}

func (m *fakeMailer) SendCredentials(to, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.to = append(m.to, to)
	m.username = username
	m.password = password
	return nil
}
