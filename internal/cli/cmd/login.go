package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "使用邮箱和密码登录",
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		doInteractiveLogin(email)
	},
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "登录邮箱")
	rootCmd.AddCommand(loginCmd)
}

func doInteractiveLogin(email string) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("🔐 登录")
	fmt.Println("─────────────────────────────────")

	if email == "" {
		email = readLine(reader, "邮箱: ")
	}
	if email == "" {
		fmt.Fprintln(os.Stderr, "✗ 邮箱不能为空")
		os.Exit(1)
	}

	// 隐藏输入
	fmt.Print("密码: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ 读取密码失败: %v\n", err)
		os.Exit(1)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		fmt.Fprintln(os.Stderr, "✗ 密码不能为空")
		os.Exit(1)
	}

	client := api.NewClient(config.GetServerURL())
	resp, err := client.Login(email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ 登录失败: %v\n", err)
		os.Exit(1)
	}

	if err := config.SaveAuth(resp.AccessToken, resp.RefreshToken, email); err != nil {
		fmt.Fprintf(os.Stderr, "✗ 保存登录信息失败: %v\n", err)
		os.Exit(1)
	}

	name := email
	if resp.User != nil && resp.User.FirstName != "" {
		name = resp.User.FirstName
	}
	fmt.Printf("✅ 登录成功，欢迎 %s！\n\n", name)
}
