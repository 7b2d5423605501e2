package booking

import (
	"context"
	"time"

	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// NotificationService 操作员站内通知收件箱
type NotificationService struct {
	repo *repository.NotificationRepository
	now  func() time.Time
}

// NewNotificationService 创建通知收件箱服务
func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

// NotificationListRequest 通知列表请求
type NotificationListRequest struct {
	Page       int
	PageSize   int
	BookingID  *int64
	Type       string
	UnreadOnly bool
}

// List 分页查询通知
func (s *NotificationService) List(ctx context.Context, req *NotificationListRequest) ([]*models.Notification, int64, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()
	filters := &repository.NotificationListFilters{BookingID: req.BookingID, Type: req.Type}
	if req.UnreadOnly {
		unread := false
		filters.IsRead = &unread
	}
	list, total, err := s.repo.List(ctx, p.GetOffset(), p.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// UnreadCount 未读数量
func (s *NotificationService) UnreadCount(ctx context.Context, bookingID *int64) (int64, error) {
	count, err := s.repo.CountUnread(ctx, bookingID)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return count, nil
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	found, err := s.repo.MarkRead(ctx, id, s.now())
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !found {
		return errors.ErrNotFound.WithMessage("通知不存在")
	}
	return nil
}

// MarkAllRead 批量已读，返回处理条数
func (s *NotificationService) MarkAllRead(ctx context.Context, bookingID *int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, bookingID, s.now())
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return n, nil
}
