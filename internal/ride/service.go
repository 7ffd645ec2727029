package ride

import (
	"context"
	"errors"
	"time"

	"ridelink/internal/apperr"
	"ridelink/internal/database"
	"ridelink/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RideService 处理行程和路线订阅
type RideService struct {
	db *gorm.DB
}

// NewRideService 创建行程服务实例
func NewRideService() *RideService {
	return &RideService{
		db: database.GetDB(),
	}
}

// CreateRide 发布一个行程
func (s *RideService) CreateRide(ctx context.Context, driverID, origin, destination string, departureTime time.Time, seats int) (*model.Ride, error) {
	if origin == "" || destination == "" {
		return nil, apperr.Validation("出发地和目的地不能为空")
	}
	if seats <= 0 {
		seats = 1
	}

	now := time.Now()
	ride := model.Ride{
		ID:            uuid.New().String(),
		DriverID:      driverID,
		Origin:        origin,
		Destination:   destination,
		DepartureTime: departureTime,
		Seats:         seats,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.WithContext(ctx).Create(&ride).Error; err != nil {
		return nil, err
	}

	return &ride, nil
}

// ListRides 按路线查询行程，origin/destination 为空时列出全部
func (s *RideService) ListRides(ctx context.Context, origin, destination string) ([]model.Ride, error) {
	query := s.db.WithContext(ctx).Model(&model.Ride{})
	if origin != "" {
		query = query.Where("origin = ?", origin)
	}
	if destination != "" {
		query = query.Where("destination = ?", destination)
	}

	var rides []model.Ride
	if err := query.Order("departure_time asc").Find(&rides).Error; err != nil {
		return nil, err
	}
	return rides, nil
}

// DeleteRide 删除行程，只有发布者可以操作
func (s *RideService) DeleteRide(ctx context.Context, driverID, rideID string) error {
	var ride model.Ride
	if err := s.db.WithContext(ctx).Where("id = ?", rideID).First(&ride).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	if ride.DriverID != driverID {
		return apperr.Forbidden("只有发布者可以删除行程")
	}

	return s.db.WithContext(ctx).Delete(&ride).Error
}

// CreateRouteWatch 订阅一条路线
func (s *RideService) CreateRouteWatch(ctx context.Context, userID, origin, destination string) (*model.RouteWatch, error) {
	if origin == "" || destination == "" {
		return nil, apperr.Validation("出发地和目的地不能为空")
	}

	watch := model.RouteWatch{
		ID:          uuid.New().String(),
		UserID:      userID,
		Origin:      origin,
		Destination: destination,
		CreatedAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&watch).Error; err != nil {
		return nil, err
	}

	return &watch, nil
}

// ListRouteWatches 获取用户的路线订阅
func (s *RideService) ListRouteWatches(ctx context.Context, userID string) ([]model.RouteWatch, error) {
	var watches []model.RouteWatch
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&watches).Error
	if err != nil {
		return nil, err
	}
	return watches, nil
}

// DeleteRouteWatch 取消路线订阅
func (s *RideService) DeleteRouteWatch(ctx context.Context, userID, watchID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", watchID, userID).
		Delete(&model.RouteWatch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
