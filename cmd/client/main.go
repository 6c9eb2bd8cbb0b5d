package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"

	"message-room/infrastructure/ws"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Username      string `env:"CHAT_USERNAME"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the hub, joins with the configured username and bridges
// stdin lines to SendMessage. `/history` requests the chat history,
// `/quit` leaves.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/chatHub"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", endpoint.String(), err)
	}
	defer conn.Close()

	if config.Username != "" {
		if err := send(conn, ws.Inbound{Method: ws.MethodJoinChat, Username: config.Username}); err != nil {
			return exitRuntime, err
		}
	}

	// The reader goroutine signals here when the server side goes away, so
	// run returns normally and the connection defer still executes.
	connClosed := make(chan struct{})
	go printEvents(conn, connClosed)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-connClosed:
			color.Red.Println("connection closed")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			switch {
			case line == "":
				continue
			case line == "/quit":
				return exitOK, nil
			case line == "/history":
				if err := send(conn, ws.Inbound{Method: ws.MethodGetChatHistory}); err != nil {
					return exitRuntime, err
				}
			case strings.HasPrefix(line, "/join "):
				username := strings.TrimSpace(strings.TrimPrefix(line, "/join "))
				if err := send(conn, ws.Inbound{Method: ws.MethodJoinChat, Username: username}); err != nil {
					return exitRuntime, err
				}
			default:
				if err := send(conn, ws.Inbound{Method: ws.MethodSendMessage, Content: line}); err != nil {
					return exitRuntime, err
				}
			}
		}
	}
}

func send(conn *websocket.Conn, action ws.Inbound) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// printEvents renders incoming notifications until the connection drops,
// then closes done.
func printEvents(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var outbound struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &outbound); err != nil {
			continue
		}
		render(outbound.Event, outbound.Data)
	}
}

func render(kind string, data json.RawMessage) {
	switch kind {
	case "ReceiveMessage":
		var m struct {
			Username  string `json:"username"`
			Content   string `json:"content"`
			Timestamp string `json:"timestamp"`
		}
		if json.Unmarshal(data, &m) == nil {
			fmt.Printf("%s %s: %s\n", color.Gray.Render(m.Timestamp), color.Cyan.Render(m.Username), m.Content)
		}
	case "UserJoined":
		var j struct {
			Username string `json:"username"`
		}
		if json.Unmarshal(data, &j) == nil {
			color.Green.Printf("-- %s joined --\n", j.Username)
		}
	case "UserCountUpdated":
		var c struct {
			Count int `json:"count"`
		}
		if json.Unmarshal(data, &c) == nil {
			color.Yellow.Printf("-- %d online --\n", c.Count)
		}
	case "UserListUpdated":
		var l struct {
			Usernames []string `json:"usernames"`
		}
		if json.Unmarshal(data, &l) == nil {
			color.Yellow.Printf("-- online: %s --\n", strings.Join(l.Usernames, ", "))
		}
	case "ChatHistory":
		var h struct {
			Messages []struct {
				Username  string `json:"username"`
				Content   string `json:"content"`
				Timestamp string `json:"timestamp"`
			} `json:"messages"`
		}
		if json.Unmarshal(data, &h) == nil {
			for _, m := range h.Messages {
				fmt.Printf("%s %s: %s\n", color.Gray.Render(m.Timestamp), color.Cyan.Render(m.Username), m.Content)
			}
		}
	case "Error":
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil {
			color.Red.Printf("error: %s\n", e.Message)
		}
	}
}
