package service

import (
	"context"
	"errors"

	"anoa.com/p2pcomm/internal/entity"
	"anoa.com/p2pcomm/internal/modules/user/dto"
	"anoa.com/p2pcomm/internal/modules/user/repository"
	"anoa.com/p2pcomm/pkg/apperror"
	"gorm.io/gorm"
)

// DirectoryService exposes the read-only account directory: a staff-only
// listing and a staff-or-self retrieval.
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]dto.UserRecord, error)
	GetUser(ctx context.Context, callerID, id string) (*dto.UserRecord, error)
}

type directoryService struct {
	repo repository.UserRepository
}

func NewDirectoryService(repo repository.UserRepository) DirectoryService {
	return &directoryService{repo: repo}
}

func (s *directoryService) ListUsers(ctx context.Context) ([]dto.UserRecord, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]dto.UserRecord, 0, len(users))
	for _, u := range users {
		records = append(records, toUserRecord(u))
	}

	return records, nil
}

func (s *directoryService) GetUser(ctx context.Context, callerID, id string) (*dto.UserRecord, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if callerID != target.ID.String() {
		caller, err := s.repo.FindByID(ctx, callerID)
		if err != nil {
			return nil, apperror.ErrUnauthorized
		}
		if !caller.IsStaff() {
			return nil, apperror.ErrForbidden
		}
	}

	record := toUserRecord(target)
	return &record, nil
}

func toUserRecord(u *entity.User) dto.UserRecord {
	return dto.UserRecord{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		SecondaryEmail:   u.SecondaryEmail,
		Batch:            u.Batch,
		IsCurrentStudent: u.IsCurrentStudent,
	}
}
