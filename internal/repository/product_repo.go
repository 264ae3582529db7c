package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	Category string
	InStock  *bool
}

// ProductRepository 商品数据访问层
// 所有查询默认排除软删除的商品（gorm.DeletedAt）
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建 ProductRepository 实例
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save 保存商品的全部字段
func (r *ProductRepository) Save(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// GetByID 根据 ID 获取商品
// 返回:
//   - *model.Product: 商品，未找到或已删除时返回 nil
//   - error: 数据库错误
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindAll 获取全部未删除的商品（含缺货商品），按 ID 排序
// 用于生成助手的目录快照
func (r *ProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error
	return products, err
}

// List 按条件列出商品，按名称排序
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.InStock != nil {
		query = query.Where("in_stock = ?", *filter.InStock)
	}

	var products []model.Product
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

// FindByIDs 根据 ID 列表获取在售商品
// 不存在、已删除、缺货或者不是数字的 ID 会被忽略
// 参数:
//   - ctx: 上下文
//   - ids: 商品 ID 字符串列表（来自模型的工具调用）
//
// 返回:
//   - []model.Product: 按名称升序排列的商品
//   - error: 数据库错误
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	numeric := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			continue
		}
		numeric = append(numeric, n)
	}
	if len(numeric) == 0 {
		return []model.Product{}, nil
	}

	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", numeric).
		Where("in_stock = ?", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// SearchByQuery 按关键字搜索在售商品
// 名称、描述、分类和标签任一包含关键字即命中（不区分大小写）
func (r *ProductRepository) SearchByQuery(ctx context.Context, q string) ([]model.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"

	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("in_stock = ?", true).
		Where(
			r.db.Where("LOWER(name) LIKE ?", pattern).
				Or("LOWER(description) LIKE ?", pattern).
				Or("LOWER(category) LIKE ?", pattern).
				Or("LOWER("+r.tagsAsText()+") LIKE ?", pattern),
		).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// tagsAsText JSON 列转文本的写法因方言而异
func (r *ProductRepository) tagsAsText() string {
	if r.db.Dialector.Name() == "mysql" {
		return "CAST(tags AS CHAR)"
	}
	return "CAST(tags AS TEXT)"
}

// SoftDelete 软删除商品
// 返回:
//   - bool: 是否有商品被删除
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	return result.RowsAffected > 0, result.Error
}

// Restore 恢复软删除的商品
func (r *ProductRepository) Restore(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Model(&model.Product{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	return result.RowsAffected > 0, result.Error
}

// HardDelete 永久删除商品
func (r *ProductRepository) HardDelete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Unscoped().Delete(&model.Product{}, id)
	return result.RowsAffected > 0, result.Error
}

// ListDeleted 列出已软删除的商品
func (r *ProductRepository) ListDeleted(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&products).Error
	return products, err
}
