package usecase

import (
	"context"
	"crypto/subtle"
	"errors"

	"dental-booking/config"
	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/delivery/http/middleware"
	"dental-booking/internal/domain/entity"
	"dental-booking/internal/service"
	"dental-booking/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthUsecase interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context) error
	Verify(ctx context.Context) (*dto.VerifyResponse, error)
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	staff        config.StaffConfig
	jwtService   *jwt.JWTService
	redisClient  *redis.Client
	auditService service.AuditService
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	staff config.StaffConfig,
	jwtService *jwt.JWTService,
	redisClient *redis.Client,
	auditService service.AuditService,
) AuthUsecase {
	return &authUsecase{
		db:           db,
		log:          log,
		staff:        staff,
		jwtService:   jwtService,
		redisClient:  redisClient,
		auditService: auditService,
	}
}

// Login checks the configured staff credentials and issues a token that stays
// valid for as long as its redis key lives.
func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if !u.checkCredentials(req.Username, req.Password) {
		u.log.Warnf("Failed staff login for %q", req.Username)
		return nil, ErrInvalidCredentials
	}

	accessToken, tokenID, err := u.jwtService.GenerateAccessToken(u.staff.Username, jwt.RoleStaff)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	if err := u.redisClient.Set(ctx, jwt.TokenKey(u.staff.Username, tokenID), "valid", u.jwtService.GetAccessExpiry()).Err(); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogAction(ctx, u.db, u.staff.Username, entity.AuditActionStaffLogin, map[string]any{"token_id": tokenID}); err != nil {
		u.log.Warnf("Login audit not recorded: %+v", err)
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(u.jwtService.GetAccessExpiry().Seconds()),
		User: dto.StaffUserResponse{
			Username: u.staff.Username,
			Role:     jwt.RoleStaff,
		},
	}, nil
}

// Logout revokes the token the request was authenticated with
func (u *authUsecase) Logout(ctx context.Context) error {
	username, ok := middleware.GetUsernameFromContext(ctx)
	tokenID, hasToken := middleware.GetTokenIDFromContext(ctx)
	if !ok || !hasToken {
		return errors.New("staff not found in context")
	}

	if err := u.redisClient.Del(ctx, jwt.TokenKey(username, tokenID)).Err(); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if err := u.auditService.LogAction(ctx, u.db, username, entity.AuditActionStaffLogout, map[string]any{"token_id": tokenID}); err != nil {
		u.log.Warnf("Logout audit not recorded: %+v", err)
	}
	return nil
}

func (u *authUsecase) Verify(ctx context.Context) (*dto.VerifyResponse, error) {
	username, ok := middleware.GetUsernameFromContext(ctx)
	if !ok {
		return &dto.VerifyResponse{Authenticated: false}, nil
	}
	role, _ := middleware.GetRoleFromContext(ctx)

	return &dto.VerifyResponse{
		Authenticated: true,
		User: dto.StaffUserResponse{
			Username: username,
			Role:     role,
		},
	}, nil
}

// checkCredentials prefers the bcrypt hash when one is configured
func (u *authUsecase) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(u.staff.Username)) == 1

	var passOK bool
	if u.staff.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(u.staff.PasswordHash), []byte(password)) == nil
	} else {
		passOK = u.staff.Password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(u.staff.Password)) == 1
	}
	return userOK && passOK
}
