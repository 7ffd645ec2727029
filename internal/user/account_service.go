package user

import (
	"context"
	"errors"
	"log"
	"time"

	"ridelink/internal/config"
	"ridelink/internal/database"
	"ridelink/internal/middleware"
	"ridelink/internal/model"
	"ridelink/internal/redisclient"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AccountService struct {
	db *gorm.DB
}

func NewAccountService() *AccountService {
	return &AccountService{
		db: database.GetDB(),
	}
}

// Register 注册新用户
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	// 检查用户名是否已存在
	var count int64
	if err := s.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", errors.New("用户名已存在")
	}

	// 哈希密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	// 创建新用户
	user := model.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Password:  string(hashedPassword),
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// 插入数据库
	if err := s.db.Create(&user).Error; err != nil {
		return "", err
	}

	return user.ID, nil
}

// Login 用户登录
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	// 查找用户
	var user model.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("用户不存在: %s", req.Username)
			return nil, errors.New("用户不存在")
		}
		log.Printf("查询用户时数据库错误: %v", err)
		return nil, err
	}

	// 验证密码
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		log.Printf("用户 %s 密码验证失败: %v", req.Username, err)
		return nil, errors.New("密码错误")
	}

	// 生成JWT令牌
	token, tokenID, err := middleware.GenerateToken(user.ID)
	if err != nil {
		log.Printf("生成令牌失败: %v", err)
		return nil, err
	}

	// 记录认证会话，账户抹除时作为外部认证记录被清理
	ttl := time.Hour * time.Duration(config.GlobalConfig.JWT.Expire)
	if err := redisclient.SaveSession(ctx, user.ID, tokenID, ttl); err != nil {
		log.Printf("记录用户 %s 的会话失败: %v", user.ID, err)
	}

	log.Printf("用户 %s (ID: %s) 登录成功", req.Username, user.ID)
	return &LoginResponse{
		UserID: user.ID,
		Token:  token,
	}, nil
}

// GetUserByID 通过ID获取用户
func (s *AccountService) GetUserByID(ctx context.Context, userID string) (*UserResponse, error) {
	var user model.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("用户不存在")
		}
		return nil, err
	}

	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}, nil
}

// SearchUsers 搜索用户
func (s *AccountService) SearchUsers(ctx context.Context, query string) ([]*UserResponse, error) {
	var users []model.User
	// 同时搜索用户名和昵称的部分匹配
	result := s.db.Where("username LIKE ? OR nickname LIKE ?",
		"%"+query+"%", "%"+query+"%").Limit(20).Find(&users)

	if result.Error != nil {
		log.Printf("搜索用户时出错: %v", result.Error)
		return nil, result.Error
	}

	var response []*UserResponse
	for _, user := range users {
		response = append(response, &UserResponse{
			ID:        user.ID,
			Username:  user.Username,
			Nickname:  user.Nickname,
			AvatarURL: user.AvatarURL,
			CreatedAt: user.CreatedAt,
		})
	}

	return response, nil
}
