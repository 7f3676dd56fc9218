package production

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"textile-backend/internal/floor"
	"textile-backend/internal/models"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrOrderNotFound   = errors.New("production order not found")
	ErrOrderExists     = errors.New("production order number already exists")
	ErrInvalidInput    = errors.New("invalid input")
)

// ArticleStore loads and saves whole Article aggregates. Save overwrites
// the stored document; the last writer wins.
type ArticleStore interface {
	Load(ctx context.Context, id uint) (*models.Article, error)
	Create(ctx context.Context, a *models.Article) error
	Save(ctx context.Context, a *models.Article) error
	ArticleIDs(ctx context.Context) ([]uint, error)
	ListByOrder(ctx context.Context, orderID uint) ([]models.Article, error)
}

// OrderStore keeps production orders and their current-floor projection.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.ProductionOrder) error
	OrderExists(ctx context.Context, id uint) (bool, error)
	ProjectFloor(ctx context.Context, orderID uint, f floor.Floor) error
}

// GormStore implements ArticleStore and OrderStore on PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	err := s.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("article %d: %w", id, ErrArticleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load article %d: %w", id, err)
	}
	return &a, nil
}

func (s *GormStore) Create(ctx context.Context, a *models.Article) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create article %s: %w", a.ArticleNumber, err)
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, a *models.Article) error {
	if err := s.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("save article %d: %w", a.ID, err)
	}
	return nil
}

func (s *GormStore) ArticleIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list article ids: %w", err)
	}
	return ids, nil
}

func (s *GormStore) ListByOrder(ctx context.Context, orderID uint) ([]models.Article, error) {
	var out []models.Article
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list articles of order %d: %w", orderID, err)
	}
	return out, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, o *models.ProductionOrder) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order %s: %w", o.OrderNumber, ErrOrderExists)
		}
		return fmt.Errorf("create order %s: %w", o.OrderNumber, err)
	}
	return nil
}

func (s *GormStore) OrderExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ProductionOrder{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("look up order %d: %w", id, err)
	}
	return count > 0, nil
}

func (s *GormStore) ProjectFloor(ctx context.Context, orderID uint, f floor.Floor) error {
	err := s.db.WithContext(ctx).
		Model(&models.ProductionOrder{}).
		Where("id = ?", orderID).
		Update("current_floor", f).Error
	if err != nil {
		return fmt.Errorf("project floor onto order %d: %w", orderID, err)
	}
	return nil
}
