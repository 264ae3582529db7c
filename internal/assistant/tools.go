package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/AmrElDessouki22/popcorn-ai/internal/llm"
)

// ToolSearchProducts 唯一开放给模型的函数
const ToolSearchProducts = "search_products"

// searchProductsTool 按 ID 拉取商品详情并直接展示给用户
var searchProductsTool = llm.Tool{
	Name:        ToolSearchProducts,
	Description: "Fetch detailed product information by IDs and return them directly to the user",
	Parameters: &llm.Schema{
		Type: "object",
		Properties: map[string]*llm.Schema{
			"ids": {
				Type:        "array",
				Items:       &llm.Schema{Type: "string"},
				Description: "List of product IDs to fetch details for",
			},
		},
		Required: []string{"ids"},
	},
}

// searchProductsArgs search_products 的参数
// 模型有时会给出数字 ID，两种都接受
type searchProductsArgs struct {
	IDs []json.RawMessage `json:"ids"`
}

// parseSearchProductsArgs 解析工具参数，返回字符串形式的 ID 列表
func parseSearchProductsArgs(raw string) ([]string, error) {
	var args searchProductsArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decode %s arguments: %w", ToolSearchProducts, err)
	}

	ids := make([]string, 0, len(args.IDs))
	for _, item := range args.IDs {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			ids = append(ids, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			ids = append(ids, n.String())
			continue
		}
		return nil, fmt.Errorf("decode %s arguments: unsupported id %s", ToolSearchProducts, string(item))
	}
	return ids, nil
}
