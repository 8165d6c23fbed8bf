package services

// 用户服务：提供基础的用户查询、创建与口令校验能力。

import (
	"context"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"contactbook/internal/storage"
	"contactbook/internal/utils"
)

// ErrEmailTaken 表示注册邮箱已存在。
var ErrEmailTaken = errors.New("email already registered")

// UserService 提供基础用户 CRUD 与口令校验。
type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

func (s *UserService) FindByEmail(ctx context.Context, email string) (*storage.User, error) {
	var u storage.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) FindByID(ctx context.Context, id uint64) (*storage.User, error) {
	var u storage.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CheckPassword 校验用户口令（bcrypt）。
func (s *UserService) CheckPassword(u *storage.User, password string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Create 创建新用户：哈希口令并按邮箱生成默认 Gravatar 头像。
// 邮箱唯一索引冲突（MySQL 1062）映射为 ErrEmailTaken。
func (s *UserService) Create(ctx context.Context, username, email, password string) (*storage.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("email/password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &storage.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Avatar:   utils.GravatarURL(email, 250),
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		var me *gomysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Save 持久化用户字段变更。
func (s *UserService) Save(ctx context.Context, u *storage.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

// UpdateRefreshToken 记录（或清除）用户当前持有的刷新令牌。
func (s *UserService) UpdateRefreshToken(ctx context.Context, u *storage.User, token string) error {
	u.RefreshToken = token
	return s.db.WithContext(ctx).Model(u).Update("refresh_token", token).Error
}

// Confirm 将邮箱标记为已验证。
func (s *UserService) Confirm(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Model(&storage.User{}).
		Where("email = ?", email).Update("confirmed", true).Error
}

// UpdateAvatar 更新用户头像地址并返回最新用户。
func (s *UserService) UpdateAvatar(ctx context.Context, email, url string) (*storage.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	u.Avatar = url
	if err := s.db.WithContext(ctx).Model(u).Update("avatar", url).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword 设置新口令并吊销已下发的刷新令牌，强制重新登录。
func (s *UserService) SetPassword(ctx context.Context, email, newPwd string) error {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(u).
		Updates(map[string]interface{}{"password": string(hash), "refresh_token": ""}).Error
}
