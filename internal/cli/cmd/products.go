package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

var productsCmd = &cobra.Command{
	Use:   "products [关键字]",
	Short: "浏览或搜索商品",
	Run:   runProducts,
}

func init() {
	productsCmd.Flags().StringP("category", "c", "", "按分类过滤")
	rootCmd.AddCommand(productsCmd)
}

func runProducts(cmd *cobra.Command, args []string) {
	client := api.NewClient(config.GetServerURL())

	var (
		products []model.Product
		err      error
	)
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		products, err = client.SearchProducts(q)
	} else {
		category, _ := cmd.Flags().GetString("category")
		products, err = client.Products(category)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ 获取商品失败: %v\n", err)
		os.Exit(1)
	}

	if len(products) == 0 {
		fmt.Println("没有找到商品")
		return
	}
	summaries := make([]model.ProductSummary, 0, len(products))
	for i := range products {
		summaries = append(summaries, products[i].Summary())
	}
	printProducts(os.Stdout, summaries)
}
