package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
)

var (
	ErrProductNotFound = errors.New("商品不存在")
	ErrInvalidPrice    = errors.New("价格不能为负")
	ErrEmptyQuery      = errors.New("搜索关键字不能为空")
)

// SnapshotCache 目录快照缓存
type SnapshotCache interface {
	GetCatalog(ctx context.Context) ([]model.Product, bool, error)
	SetCatalog(ctx context.Context, products []model.Product, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
}

// CatalogService 商品目录服务
// 同时作为助手的 CatalogStore：FindAll 走快照缓存，FindByIDs 直接查库
type CatalogService struct {
	productRepo *repository.ProductRepository
	cache       SnapshotCache // 可为 nil，表示不缓存
	ttl         time.Duration
}

// NewCatalogService 创建 CatalogService 实例
// 参数:
//   - productRepo: 商品仓库
//   - cache: 快照缓存，nil 或 ttl <= 0 时每次都查库
//   - ttl: 快照有效期
func NewCatalogService(productRepo *repository.ProductRepository, cache SnapshotCache, ttl time.Duration) *CatalogService {
	return &CatalogService{productRepo: productRepo, cache: cache, ttl: ttl}
}

// FindAll 全部未删除商品
// 缓存读写失败只记录日志，退回数据库
func (s *CatalogService) FindAll(ctx context.Context) ([]model.Product, error) {
	if s.cacheEnabled() {
		products, ok, err := s.cache.GetCatalog(ctx)
		if err != nil {
			zap.L().Warn("read catalog snapshot failed", zap.Error(err))
		} else if ok {
			return products, nil
		}
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.SetCatalog(ctx, products, s.ttl); err != nil {
			zap.L().Warn("write catalog snapshot failed", zap.Error(err))
		}
	}
	return products, nil
}

// FindByIDs 按 ID 查在售商品，按名称升序
func (s *CatalogService) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	return s.productRepo.FindByIDs(ctx, ids)
}

// List 按分类和库存过滤商品
func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// Search 按关键字搜索在售商品
func (s *CatalogService) Search(ctx context.Context, q string) ([]model.Product, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	return s.productRepo.SearchByQuery(ctx, q)
}

// Get 获取单个商品
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ProductRequest 创建商品请求
type ProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"required"`
	Price       *float64 `json:"price" binding:"required"`
	Category    string   `json:"category" binding:"max=100"`
	ImageURL    *string  `json:"imageUrl" binding:"omitempty,max=500"`
	Tags        []string `json:"tags"`
	InStock     *bool    `json:"inStock"`
	Weight      *float64 `json:"weight"`
}

// Create 创建商品
func (s *CatalogService) Create(ctx context.Context, req *ProductRequest) (*model.Product, error) {
	if *req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Tags:        normalizeTags(req.Tags),
		InStock:     true,
		Weight:      req.Weight,
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// UpdateProductRequest 更新商品请求，只更新非空字段
type UpdateProductRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=200"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category" binding:"omitempty,max=100"`
	ImageURL    *string   `json:"imageUrl" binding:"omitempty,max=500"`
	Tags        *[]string `json:"tags"`
	InStock     *bool     `json:"inStock"`
	Weight      *float64  `json:"weight"`
}

// Update 更新商品
func (s *CatalogService) Update(ctx context.Context, id int64, req *UpdateProductRequest) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Price != nil {
		if *req.Price < 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	if req.Tags != nil {
		product.Tags = normalizeTags(*req.Tags)
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if req.Weight != nil {
		product.Weight = req.Weight
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete 软删除商品
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ok, err := s.productRepo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	s.invalidate(ctx)
	return nil
}

// Restore 恢复软删除的商品
func (s *CatalogService) Restore(ctx context.Context, id int64) (*model.Product, error) {
	ok, err := s.productRepo.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProductNotFound
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Purge 永久删除商品
func (s *CatalogService) Purge(ctx context.Context, id int64) error {
	ok, err := s.productRepo.HardDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	s.invalidate(ctx)
	return nil
}

// ListDeleted 列出已软删除的商品
func (s *CatalogService) ListDeleted(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.ListDeleted(ctx)
}

func (s *CatalogService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		zap.L().Warn("invalidate catalog snapshot failed", zap.Error(err))
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
