package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
	"github.com/AmrElDessouki22/popcorn-ai/pkg/util"
)

// printTurn 输出助手回复，附带轮播或按钮
func printTurn(w io.Writer, turn *api.ChatTurn) {
	fmt.Fprintf(w, "🤖 %s\n", turn.Message)
	if turn.RichContent == nil {
		return
	}

	switch turn.RichContent.Type {
	case model.RichContentProductCarousel:
		printProducts(w, turn.RichContent.Products)
	case model.RichContentActionButtons:
		for _, b := range turn.RichContent.Buttons {
			fmt.Fprintf(w, "  [%s]\n", b.Label)
		}
	}
}

func printProducts(w io.Writer, products []model.ProductSummary) {
	for _, p := range products {
		stock := "有货"
		if !p.InStock {
			stock = "缺货"
		}
		fmt.Fprintf(w, "  • #%s %s  $%.2f  [%s] %s\n", p.ID, p.Name, p.Price, p.Category, stock)
		if p.Description != "" {
			fmt.Fprintf(w, "      %s\n", util.TruncateString(p.Description, 80))
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(w, "      标签: %s\n", strings.Join(p.Tags, ", "))
		}
	}
}
