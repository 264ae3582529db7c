package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/repository"
	"github.com/AmrElDessouki22/popcorn-ai/internal/service"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/response"
)

// ProductHandler 商品目录请求处理器
type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler 创建 ProductHandler 实例
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// List 商品列表
// @Summary 商品列表
// @Tags 商品
// @Param category query string false "分类"
// @Param in_stock query bool false "是否有货"
// @Router /api/v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	filter := repository.ProductFilter{Category: c.Query("category")}
	if raw := c.Query("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "in_stock 参数错误")
			return
		}
		filter.InStock = &inStock
	}

	products, err := h.catalogService.List(c.Request.Context(), filter)
	if err != nil {
		zap.L().Error("list products failed", zap.Error(err))
		response.InternalError(c, "获取商品列表失败")
		return
	}
	response.Success(c, products)
}

// Search 关键字搜索在售商品
// @Router /api/v1/products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.catalogService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.BadRequest(c, err.Error())
			return
		}
		zap.L().Error("search products failed", zap.Error(err))
		response.InternalError(c, "搜索商品失败")
		return
	}
	response.Success(c, products)
}

// Get 商品详情
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "获取商品失败")
		return
	}
	response.Success(c, product)
}

// Create 创建商品（管理员）
// @Router /api/v1/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	product, err := h.catalogService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err, "创建商品失败")
		return
	}
	response.Created(c, product)
}

// Update 更新商品（管理员）
// @Router /api/v1/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	product, err := h.catalogService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err, "更新商品失败")
		return
	}
	response.SuccessWithMessage(c, "更新成功", product)
}

// Delete 软删除商品（管理员）
// @Router /api/v1/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "删除商品失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// Restore 恢复已删除的商品（管理员）
// @Router /api/v1/products/{id}/restore [post]
func (h *ProductHandler) Restore(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.catalogService.Restore(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "恢复商品失败")
		return
	}
	response.SuccessWithMessage(c, "恢复成功", product)
}

// Purge 永久删除商品（管理员）
// @Router /api/v1/products/{id}/purge [delete]
func (h *ProductHandler) Purge(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.catalogService.Purge(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "删除商品失败")
		return
	}
	response.NoContent(c)
}

// ListDeleted 已删除商品列表（管理员）
// @Router /api/v1/products/deleted [get]
func (h *ProductHandler) ListDeleted(c *gin.Context) {
	products, err := h.catalogService.ListDeleted(c.Request.Context())
	if err != nil {
		zap.L().Error("list deleted products failed", zap.Error(err))
		response.InternalError(c, "获取已删除商品失败")
		return
	}
	response.Success(c, products)
}

func (h *ProductHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		response.ProductNotFound(c)
	case errors.Is(err, service.ErrInvalidPrice):
		response.BadRequest(c, err.Error())
	default:
		zap.L().Error(fallback, zap.Error(err))
		response.InternalError(c, fallback)
	}
}

// parseIDParam 解析路径参数 id，失败时直接写 400
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的 ID")
		return 0, false
	}
	return id, true
}

// parsePage 解析分页参数，非法值交给服务层归一化
func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return page, pageSize
}
