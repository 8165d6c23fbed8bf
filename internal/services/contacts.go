package services

// 联系人服务：所有查询均以 user_id 作用域限定，跨用户访问等同于记录不存在。

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"contactbook/internal/storage"
)

// ContactInput 是创建/更新联系人时由 HTTP 层传入的字段集合。
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Birthday    time.Time
	Description string
	Favorites   bool
}

// ContactFilter 定义列表查询的过滤与分页参数。
type ContactFilter struct {
	FirstName string
	LastName  string
	Email     string
	Limit     int
	Offset    int
}

// ContactService 提供按所有者作用域的联系人 CRUD 与查询。
type ContactService struct{ db *gorm.DB }

func NewContactService(db *gorm.DB) *ContactService { return &ContactService{db: db} }

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// List 返回当前用户的联系人。提供的过滤条件之间取并集（任一字段子串命中即返回）。
func (s *ContactService) List(ctx context.Context, userID uint64, f ContactFilter) ([]storage.Contact, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if f.FirstName != "" || f.LastName != "" || f.Email != "" {
		cond := s.db.Where("1 = 0")
		if f.FirstName != "" {
			cond = cond.Or("first_name LIKE ?", "%"+f.FirstName+"%")
		}
		if f.LastName != "" {
			cond = cond.Or("last_name LIKE ?", "%"+f.LastName+"%")
		}
		if f.Email != "" {
			cond = cond.Or("email LIKE ?", "%"+f.Email+"%")
		}
		q = q.Where(cond)
	}
	var contacts []storage.Contact
	err := q.Order("id").Limit(normalizeLimit(f.Limit)).Offset(f.Offset).Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// GetByID 返回当前用户的单个联系人；他人联系人返回 gorm.ErrRecordNotFound。
func (s *ContactService) GetByID(ctx context.Context, userID, contactID uint64) (*storage.Contact, error) {
	var c storage.Contact
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, contactID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContactService) Create(ctx context.Context, userID uint64, in ContactInput) (*storage.Contact, error) {
	c := &storage.Contact{
		UserID:      userID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
		Birthday:    in.Birthday,
		Description: in.Description,
		Favorites:   in.Favorites,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// Update 整体覆盖联系人字段；作用域外返回 gorm.ErrRecordNotFound。
func (s *ContactService) Update(ctx context.Context, userID, contactID uint64, in ContactInput) (*storage.Contact, error) {
	c, err := s.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Birthday = in.Birthday
	c.Description = in.Description
	c.Favorites = in.Favorites
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, contactID uint64) error {
	c, err := s.GetByID(ctx, userID, contactID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(c).Error
}

// UpcomingBirthdays 返回未来 7 天内过生日的联系人（按月/日匹配，跨年安全）。
// 过滤在取出所属联系人后于内存中完成，避免依赖方言相关的日期函数。
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID uint64, limit, offset int) ([]storage.Contact, error) {
	return s.upcomingBirthdays(ctx, userID, limit, offset, time.Now())
}

func (s *ContactService) upcomingBirthdays(ctx context.Context, userID uint64, limit, offset int, now time.Time) ([]storage.Contact, error) {
	var all []storage.Contact
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&all).Error; err != nil {
		return nil, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	matched := make([]storage.Contact, 0, len(all))
	daysAhead := make(map[uint64]int, len(all))
	for _, c := range all {
		bm, bd := c.Birthday.Month(), c.Birthday.Day()
		for d := 0; d <= 7; d++ {
			day := today.AddDate(0, 0, d)
			m, dd := bm, bd
			// 闰日生日在平年按 2 月 28 日计算
			if bm == time.February && bd == 29 && !isLeapYear(day.Year()) {
				dd = 28
			}
			if m == day.Month() && dd == day.Day() {
				matched = append(matched, c)
				daysAhead[c.ID] = d
				break
			}
		}
	}
	// 距离最近的生日排在前面
	sort.SliceStable(matched, func(i, j int) bool {
		return daysAhead[matched[i].ID] < daysAhead[matched[j].ID]
	})
	if offset >= len(matched) {
		return []storage.Contact{}, nil
	}
	matched = matched[offset:]
	limit = normalizeLimit(limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
