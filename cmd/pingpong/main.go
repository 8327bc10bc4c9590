package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/client"
	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

func main() {
	token := os.Getenv("FERRIS_TOKEN")
	if token == "" {
		dlog.Error("FERRIS_TOKEN not set")
		os.Exit(1)
	}

	var c *client.Client
	c = client.New(token,
		client.WithEventListenerFunc(func(e events.Ready) {
			dlog.Info("Logged in", "user", e.User.Name, "guilds", len(e.Guilds))
		}),
		client.WithEventListenerFunc(func(e events.MessageCreate) {
			if self, ok := c.Caches().SelfUser(); ok && e.Message.AuthorID == self.ID {
				return
			}
			if strings.TrimSpace(e.Message.Content) != "ping" {
				return
			}
			if _, err := c.SendMessage(context.Background(), e.Message.ChannelID, "pong"); err != nil {
				dlog.Error("Failed to send pong", "err", err)
			}
		}),
		client.WithEventListenerFunc(func(e events.Error) {
			dlog.Error("Client error", "err", e.Err)
		}),
	)

	if err := c.Open(context.Background()); err != nil {
		dlog.Error("Failed to connect", "err", err)
		os.Exit(1)
	}
	defer c.Close()

	dlog.Info("Running, press ctrl+c to exit")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
