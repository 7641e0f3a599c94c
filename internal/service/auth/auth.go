// Package auth 提供凭证校验与调用者解析
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/config"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/repository"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     string
)

// resolveJwtSecret 解析 JWT 密钥
// 优先级：配置 > 环境变量 > 随机生成（随机密钥重启后旧令牌全部失效）
func resolveJwtSecret(configured string) string {
	if s := strings.TrimSpace(configured); s != "" {
		return s
	}

	jwtSecretOnce.Do(func() {
		if envSecret := strings.TrimSpace(os.Getenv("JWT_SECRET")); envSecret != "" {
			jwtSecret = envSecret
			return
		}

		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		jwtSecret = base64.StdEncoding.EncodeToString(randomBytes)
	})

	return jwtSecret
}

// Service 认证服务
type Service struct {
	repo     repository.ProfileRepository // 使用接口便于测试
	secret   string
	tokenTTL time.Duration
}

// NewService 创建认证服务
func NewService(repo repository.ProfileRepository, cfg *config.Config) *Service {
	ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		repo:     repo,
		secret:   resolveJwtSecret(cfg.Auth.JWTSecret),
		tokenTTL: ttl,
	}
}

// Authenticate 校验 Authorization 头并解析调用者
// 凭证缺失或无效 -> Unauthorized；令牌有效但档案缺失或未绑定工作区 -> Forbidden
// 密码学上有效但没有工作区绑定的令牌，业务上不视为已认证
func (s *Service) Authenticate(ctx context.Context, authHeader string) (*model.CallerInfo, error) {
	if authHeader == "" {
		return nil, apperr.Unauthorized("missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, apperr.Unauthorized("invalid authorization header format")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return nil, apperr.Unauthorized("empty bearer token")
	}

	subject, _, err := s.verifyToken(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	profile, err := s.repo.GetByID(subject)
	if err != nil {
		return nil, apperr.Forbidden("profile not found")
	}
	if profile.WorkspaceID == nil || *profile.WorkspaceID == "" {
		return nil, apperr.Forbidden("no workspace binding")
	}

	return profile.ToCallerInfo(), nil
}

// verifyToken 校验令牌，返回主体 ID 和邮箱
func (s *Service) verifyToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", "", fmt.Errorf("invalid subject in token")
	}

	email, _ := claims["email"].(string)
	return subject, email, nil
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	WorkspaceID string `json:"workspace_id"`
}

// Register 注册用户档案
// WorkspaceID 为空时创建未绑定档案，该档案登录有效但所有业务请求返回 403
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*model.Profile, error) {
	if existing, _ := s.repo.GetByEmail(req.Email); existing != nil {
		return nil, apperr.Invalid("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &model.Profile{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		RoleCode:     "member",
	}
	if req.WorkspaceID != "" {
		profile.WorkspaceID = &req.WorkspaceID
	}

	if err := s.repo.Create(profile); err != nil {
		return nil, apperr.Persistence("failed to create profile", err)
	}

	return profile, nil
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
}

// Login 校验密码并签发访问令牌
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	profile, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	token, err := s.generateToken(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{Token: token, Profile: profile}, nil
}

// generateToken 签发 HS256 访问令牌
func (s *Service) generateToken(profile *model.Profile) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   profile.ID,
		"email": profile.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
