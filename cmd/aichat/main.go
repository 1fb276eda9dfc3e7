package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"storefront-realtime/internal/api"
	"storefront-realtime/internal/auth"
	"storefront-realtime/internal/cache"
	"storefront-realtime/internal/chat"
	"storefront-realtime/internal/config"
	"storefront-realtime/internal/model"
	"storefront-realtime/internal/socket"
	"storefront-realtime/internal/thread"
	"storefront-realtime/pkg/logger"

	"github.com/sirupsen/logrus"
)

// aichat is a terminal client for the AI assistant thread. It exercises the
// full realtime core: registry, chat service, REST send, local cache and the
// sync engine.
func main() {
	cfg := config.Load()
	logger.Init(cfg.Log.Level, cfg.Log.MaxEntries)

	userID := os.Getenv("STOREFRONT_USER_ID")
	if userID == "" {
		userID = "local-user"
	}

	// A token file lets an external login flow rotate credentials while the
	// REPL is running; otherwise the token is fixed for the session.
	var tokens auth.TokenSource = auth.NewMemoryStore(os.Getenv("STOREFRONT_TOKEN"))
	if path := os.Getenv("STOREFRONT_TOKEN_FILE"); path != "" {
		tokens = auth.NewFileStore(path)
	}

	store, err := cache.NewStore(cfg.Cache.Path, cfg.Cache.MaxMessages)
	if err != nil {
		logrus.WithError(err).Fatal("thread cache open failed")
	}
	defer store.Close()

	registry := socket.NewRegistry(cfg.Realtime, tokens)
	service := chat.NewService(registry, model.ChannelAI, chat.Handlers{
		OnMessage: func(conversationID string, msg model.Message) {
			fmt.Printf("\n[%s] %s\n> ", msg.SenderID, msg.Body)
		},
		OnReady: func() {
			logrus.Debug("ai channel ready")
		},
	})
	service.Connect()
	defer service.Disconnect()

	engine := thread.NewEngine(store, api.NewClient(cfg.API.BaseURL, tokens))
	engine.Hydrate(userID)

	for _, msg := range engine.Thread(userID) {
		fmt.Printf("[%s] %s\n", msg.SenderID, msg.Body)
	}
	fmt.Println(`Type a message, "/clear" to reset the thread, or "/quit".`)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit":
			return
		case "/clear":
			engine.Clear(userID)
			fmt.Println("thread cleared")
		default:
			engine.Send(context.Background(), userID, line, userID)
			thr := engine.Thread(userID)
			if len(thr) > 0 {
				last := thr[len(thr)-1]
				fmt.Printf("[%s] %s\n", last.SenderID, last.Body)
			}
			if meta := engine.Meta(userID); meta.Status == model.ThreadError {
				fmt.Printf("send failed: %s\n", meta.Error)
			}
		}
		fmt.Print("> ")
	}
}
