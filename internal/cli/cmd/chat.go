package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/config"
	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/websocket"
)

// 等待一轮回复的最长时间
const replyTimeout = 90 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "和购物助手对话",
	Long: `进入对话模式，输入问题后回车发送。

  /new   开始新的会话
  /quit  退出`,
	Run: func(cmd *cobra.Command, args []string) {
		requireLogin()
		conversationID, _ := cmd.Flags().GetInt64("conversation")
		useHTTP, _ := cmd.Flags().GetBool("http")
		runChatLoop(conversationID, useHTTP)
	},
}

func init() {
	chatCmd.Flags().Int64P("conversation", "c", 0, "继续已有会话")
	chatCmd.Flags().Bool("http", false, "使用 HTTP 而不是 WebSocket")
	rootCmd.AddCommand(chatCmd)
}

// turnSender 发送一轮消息并等待回复
type turnSender func(message string, conversationID int64) (*api.ChatTurn, error)

func runChatLoop(conversationID int64, useHTTP bool) {
	token := config.GetAccessToken()

	var send turnSender
	if useHTTP {
		client := api.NewClient(config.GetServerURL())
		send = func(message string, conversationID int64) (*api.ChatTurn, error) {
			return client.Chat(token, message, conversationID)
		}
	} else {
		ws, sender, err := dialChat(token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			os.Exit(1)
		}
		defer ws.Disconnect()
		send = sender
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n再见！")
		os.Exit(0)
	}()

	fmt.Println("💬 输入问题开始对话（/new 新会话，/quit 退出）")
	reader := bufio.NewReader(os.Stdin)
	for {
		line := readLine(reader, "\n你: ")
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Println("再见！")
			return
		case "/new":
			conversationID = 0
			fmt.Println("已开始新的会话")
			continue
		}

		turn, err := send(line, conversationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			continue
		}
		conversationID = turn.ConversationID
		printTurn(os.Stdout, turn)
	}
}

// dialChat 建立 WebSocket 连接，返回按轮发送的函数
func dialChat(token string) (*websocket.Client, turnSender, error) {
	ws := websocket.NewClient(config.WSURL(config.GetServerURL()), token)

	replies := make(chan *websocket.Message, 8)
	ws.OnMessage(func(msg *websocket.Message) {
		switch msg.Type {
		case websocket.TypeChatReply, websocket.TypeError:
			select {
			case replies <- msg:
			default:
			}
		}
	})
	closed := make(chan struct{})
	ws.OnClose(func() { close(closed) })

	if err := ws.Connect(); err != nil {
		return nil, nil, fmt.Errorf("连接服务器失败: %w", err)
	}

	send := func(message string, conversationID int64) (*api.ChatTurn, error) {
		messageID := uuid.NewString()
		if err := ws.SendChat(message, conversationID, messageID); err != nil {
			return nil, err
		}

		timer := time.NewTimer(replyTimeout)
		defer timer.Stop()
		for {
			select {
			case msg := <-replies:
				if msg.Type == websocket.TypeError {
					if msg.MessageID != "" && msg.MessageID != messageID {
						continue
					}
					var payload struct {
						Message string `json:"message"`
					}
					json.Unmarshal(msg.Payload, &payload)
					return nil, errors.New(payload.Message)
				}
				var turn api.ChatTurn
				if err := json.Unmarshal(msg.Payload, &turn); err != nil {
					return nil, fmt.Errorf("解析回复失败: %w", err)
				}
				return &turn, nil
			case <-closed:
				return nil, errors.New("连接已断开")
			case <-timer.C:
				return nil, errors.New("等待回复超时")
			}
		}
	}
	return ws, send, nil
}
