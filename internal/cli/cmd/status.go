package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示当前状态",
	Long: `显示服务器地址和登录状态。

已登录时会向服务器确认 Token 是否仍然有效。`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║              Popcorn 状态信息                   ║")
	fmt.Println("╠════════════════════════════════════════════════╣")
	fmt.Printf("║  服务器: %s\n", config.GetServerURL())

	token := config.GetAccessToken()
	if token == "" {
		fmt.Println("║  登录状态: ✗ 未登录")
		fmt.Println("║")
		fmt.Println("║  请运行 'popcorn login' 完成登录")
	} else if user, err := api.NewClient(config.GetServerURL()).Me(token); err != nil {
		fmt.Printf("║  登录状态: ⚠️  %s 的凭证已失效 (%v)\n", config.GetEmail(), err)
	} else {
		fmt.Printf("║  登录状态: ✓ %s (%s)\n", user.Email, user.Role)
	}

	fmt.Println("╚════════════════════════════════════════════════╝")
}
