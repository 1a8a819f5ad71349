package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/p2pcomm/internal/config"
	"anoa.com/p2pcomm/internal/entity"
	"anoa.com/p2pcomm/internal/modules/user/dto"
	"anoa.com/p2pcomm/internal/modules/user/repository"
	"anoa.com/p2pcomm/pkg/apperror"
	"anoa.com/p2pcomm/pkg/mailer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.RegisterResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
}

type authService struct {
	repo          repository.UserRepository
	mail          mailer.Mailer
	rdb           *redis.Client
	secret        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	collegeDomain string
	registerLimit time.Duration
}

func NewAuthService(cfg *config.Config, repo repository.UserRepository, mail mailer.Mailer, rdb *redis.Client) AuthService {
	return &authService{
		repo:          repo,
		mail:          mail,
		rdb:           rdb,
		secret:        cfg.JWTSecret,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		collegeDomain: strings.ToLower(cfg.CollegeDomain),
		registerLimit: cfg.RegisterRateLimit,
	}
}

// Claims are the JWT claims issued by this service. TokenType keeps refresh
// tokens out of the Authorization header and vice versa.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput, clientIP string) (*dto.RegisterResponse, error) {
	if clientIP != "" {
		allowed, err := CheckAndSetRateLimit(ctx, s.rdb, clientIP, "register", s.registerLimit)
		if err != nil {
			log.Printf("rate limit check failed, allowing request: %v", err)
		} else if !allowed {
			return nil, apperror.ErrRateLimitExceeded
		}
	}

	email := strings.ToLower(strings.TrimSpace(input.CollegeEmail))

	if !strings.HasSuffix(email, s.collegeDomain) {
		return nil, apperror.Validation("college_email", "Registration requires a college email.")
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Validation("college_email", "A user with this college email already exists.")
	}

	username, err := DeriveUsername(ctx, s.repo, email)
	if err != nil {
		return nil, err
	}

	password, err := GeneratePassword(PasswordLength)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	isCurrent := true
	if input.IsCurrentStudent != nil {
		isCurrent = *input.IsCurrentStudent
	}

	user := &entity.User{
		Username:         username,
		Email:            email,
		Batch:            input.Batch,
		IsCurrentStudent: isCurrent,
		PasswordHash:     string(hashed),
	}

	if role, err := s.repo.FindRoleByName(ctx, entity.RoleStudent); err == nil {
		user.RoleID = &role.ID
	}

	// Profile is created in the same transaction so the "every user has a
	// profile" contract is visible right here at the call site.
	if err := s.repo.Create(ctx, user, &entity.Profile{}); err != nil {
		return nil, err
	}

	// Credentials travel only by mail. If delivery fails the account is
	// rolled back so the student can simply register again.
	if err := s.mail.SendCredentials(email, username, password); err != nil {
		if delErr := s.repo.Delete(ctx, user.ID.String()); delErr != nil {
			log.Printf("failed to roll back user %s after mail error: %v", user.ID, delErr)
		}
		return nil, apperror.New(http.StatusBadGateway, "failed to deliver credential email", apperror.ErrMailDelivery)
	}

	return &dto.RegisterResponse{
		Detail: "Registered. Credentials emailed to your college email.",
	}, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusUnauthorized, "invalid credentials", nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "invalid credentials", nil)
	}

	access, expiresAt, err := s.generateToken(user.ID.String(), tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, _, err := s.generateToken(user.ID.String(), tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    expiresAt,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil || claims.TokenType != tokenTypeRefresh {
		return nil, apperror.New(http.StatusUnauthorized, "invalid or expired refresh token", nil)
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "invalid or expired refresh token", nil)
	}

	access, expiresAt, err := s.generateToken(user.ID.String(), tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
	}, nil
}

func (s *authService) generateToken(subject, tokenType string, ttl time.Duration) (string, int64, error) {
	expiresAt := time.Now().Add(ttl)

	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

func (s *authService) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}

	return claims, nil
}
