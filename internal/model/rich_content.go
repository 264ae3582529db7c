package model

import "errors"

// RichContent 的类型标签
const (
	RichContentProductCarousel = "product_carousel"
	RichContentActionButtons   = "action_buttons"
)

var (
	ErrUnknownRichContent = errors.New("unknown rich content type")
	ErrEmptyCarousel      = errors.New("product carousel has no products")
	ErrEmptyButtons       = errors.New("action buttons has no buttons")
)

// RichContent 消息的结构化内容，按 Type 区分
//   - product_carousel: Products 非空
//   - action_buttons: Buttons 非空
type RichContent struct {
	Type     string           `json:"type"`
	Products []ProductSummary `json:"products,omitempty"`
	Buttons  []ActionButton   `json:"buttons,omitempty"`
}

// ProductSummary 嵌入消息的商品快照，和商品表解耦
type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Category    string   `json:"category"`
	InStock     bool     `json:"inStock"`
	Tags        []string `json:"tags"`
}

// ActionButton 快捷操作按钮
type ActionButton struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// NewProductCarousel 构造商品轮播
func NewProductCarousel(products []ProductSummary) *RichContent {
	return &RichContent{Type: RichContentProductCarousel, Products: products}
}

// NewActionButtons 构造快捷按钮组
func NewActionButtons(buttons []ActionButton) *RichContent {
	return &RichContent{Type: RichContentActionButtons, Buttons: buttons}
}

// Validate 校验类型标签和负载是否一致
func (rc *RichContent) Validate() error {
	switch rc.Type {
	case RichContentProductCarousel:
		if len(rc.Products) == 0 {
			return ErrEmptyCarousel
		}
	case RichContentActionButtons:
		if len(rc.Buttons) == 0 {
			return ErrEmptyButtons
		}
	default:
		return ErrUnknownRichContent
	}
	return nil
}

// MessageType 结构化内容对应的消息类型
func (rc *RichContent) MessageType() string {
	switch rc.Type {
	case RichContentProductCarousel:
		return MessageTypeCarousel
	case RichContentActionButtons:
		return MessageTypeActionButtons
	}
	return MessageTypeText
}
