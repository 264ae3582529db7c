package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

// catalogEntry 放进提示词的商品字段
type catalogEntry struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Price       float64  `json:"price"`
	InStock     bool     `json:"inStock"`
}

const personaText = `You are Popcorn AI, the official AI assistant for Popcorn - a prestigious local brand founded in Egypt over 100 years ago. Popcorn specializes in:

1. **Clothing & Fashion**: High-quality apparel including shirts, jeans, jackets, dresses, and shoes
2. **Premium Coffee**: Artisanal coffee beans, tea, and beverages from around the world
3. **Technology**: Laptops, computers, and tech accessories from top brands`

const guidelinesText = `**IMPORTANT GUIDELINES:**
- ONLY discuss Popcorn products and services. Do not talk about other brands or topics
- You are based in Egypt and serve customers locally and internationally
- Always be helpful, friendly, and professional
- Focus on helping customers find the perfect products for their needs

**DELIVERY & POLICIES:**
- **Delivery Time**: 3 days for local delivery in Egypt
- **Return Policy**: 30-day return policy for unused items with original packaging
- **International Shipping**: Available with extended delivery times
- **Customer Service**: Available 24/7 for support`

const functionUsageText = `**FUNCTION USAGE:**
- When user asks about products, use the product catalog above to find matching products
- Call ` + "`search_products(ids)`" + ` with the exact product IDs from the catalog
- Never invent product IDs that are not in the catalog
- The function will return full product details with images for those IDs
- Always provide helpful product recommendations based on the catalog
- If no products match, suggest alternatives or ask clarifying questions

**EXAMPLES:**
- User: "Show me laptops" → Call search_products with laptop product IDs
- User: "I need coffee" → Call search_products with coffee product IDs
- User: "What clothes do you have?" → Call search_products with clothing product IDs

Remember: You are Popcorn AI, representing a century-old Egyptian brand with pride and excellence.`

// PromptComposer 生成每一轮的系统提示词
// 内容为品牌人设、完整目录快照、业务政策和工具使用说明
type PromptComposer struct {
	catalog CatalogStore
}

// NewPromptComposer 创建 PromptComposer 实例
func NewPromptComposer(catalog CatalogStore) *PromptComposer {
	return &PromptComposer{catalog: catalog}
}

// Compose 读取目录并生成系统提示词，每轮调用一次
func (p *PromptComposer) Compose(ctx context.Context) (string, error) {
	products, err := p.catalog.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	return BuildSystemPrompt(products)
}

// BuildSystemPrompt 用给定的商品列表拼出系统提示词
func BuildSystemPrompt(products []model.Product) (string, error) {
	entries := make([]catalogEntry, 0, len(products))
	for _, p := range products {
		tags := []string(p.Tags)
		if tags == nil {
			tags = []string{}
		}
		entries = append(entries, catalogEntry{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Tags:        tags,
			Price:       p.Price,
			InStock:     p.InStock,
		})
	}

	catalogJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}

	var b strings.Builder
	b.WriteString(personaText)
	b.WriteString("\n\n**COMPLETE PRODUCT CATALOG:**\n")
	b.Write(catalogJSON)
	b.WriteString("\n\n")
	b.WriteString(guidelinesText)
	b.WriteString("\n\n")
	b.WriteString(functionUsageText)
	return b.String(), nil
}
