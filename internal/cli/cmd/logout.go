package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "登出并清除本地凭证",
	Long: `登出当前账号，服务端会让当前 Token 失效，并清除本地保存的凭证。

登出后需要重新运行 'popcorn login' 才能对话。`,
	Run: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) {
	token := config.GetAccessToken()
	if token == "" {
		fmt.Println("当前未登录")
		return
	}

	// 服务端失败也继续清除本地凭证
	if err := api.NewClient(config.GetServerURL()).Logout(token); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  服务端登出失败: %v\n", err)
	}

	if err := config.ClearAuth(); err != nil {
		fmt.Fprintf(os.Stderr, "清除凭证失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ 已登出并清除本地凭证")
}
