// Package cmd 实现 CLI 命令
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
)

var rootCmd = &cobra.Command{
	Use:   "popcorn",
	Short: "Popcorn - 在终端里和购物助手聊天",
	Long: `Popcorn CLI 客户端

登录后可以浏览商品，或者直接和购物助手对话。
直接运行即可进入对话，未登录时会先引导登录。`,
	Run: runInteractive,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("server", "s", "", "服务器地址 (默认: http://localhost:8080)")
	rootCmd.PersistentFlags().Bool("debug", false, "输出调试日志")
}

func initConfig() {
	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
		if l, err := zap.NewDevelopment(); err == nil {
			zap.ReplaceGlobals(l)
		}
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "初始化配置失败: %v\n", err)
		os.Exit(1)
	}

	if server, _ := rootCmd.PersistentFlags().GetString("server"); server != "" {
		config.SetServerURL(server)
	}
}

// runInteractive 未登录先登录，然后进入对话
func runInteractive(cmd *cobra.Command, args []string) {
	printBanner()

	if config.IsLoggedIn() {
		fmt.Printf("当前账号: %s\n\n", config.GetEmail())
	} else {
		doInteractiveLogin("")
	}

	runChatLoop(0, false)
}

func printBanner() {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║            🍿 Popcorn 购物助手                  ║")
	fmt.Println("╚════════════════════════════════════════════════╝")
	fmt.Println()
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func requireLogin() {
	if !config.IsLoggedIn() {
		fmt.Fprintln(os.Stderr, "✗ 未登录，请先运行 'popcorn login'")
		os.Exit(1)
	}
}
