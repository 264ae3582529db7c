package model

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product 商品模型
// 对应数据库表 products
// 软删除的商品不会出现在目录快照和搜索结果中
type Product struct {
	ID int64 `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"size:200;not null;index" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`

	// Price 价格，数据库中为 decimal(10,2)，不能为负
	Price float64 `gorm:"type:decimal(10,2);not null" json:"price"`

	// Category 商品线，例如 Clothing & Fashion / Premium Coffee / Technology
	Category string `gorm:"size:100;index" json:"category"`

	ImageURL *string `gorm:"size:500" json:"imageUrl,omitempty"`

	// Tags 搜索标签，以 JSON 数组存储
	Tags datatypes.JSONSlice[string] `json:"tags"`

	InStock bool     `gorm:"not null;index" json:"inStock"`
	Weight  *float64 `gorm:"type:decimal(10,2)" json:"weight,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// IDString 商品 ID 的字符串形式，模型工具调用和轮播都使用字符串 ID
func (p *Product) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

// Summary 生成嵌入消息中的商品快照
func (p *Product) Summary() ProductSummary {
	imageURL := ""
	if p.ImageURL != nil {
		imageURL = *p.ImageURL
	}
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return ProductSummary{
		ID:          p.IDString(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    imageURL,
		Category:    p.Category,
		InStock:     p.InStock,
		Tags:        tags,
	}
}
