package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gwillem/pastabot/pkg/protocol"
)

type DiscoverCommand struct {
	Broadcast string        `long:"broadcast" env:"PASTABOT_BROADCAST" description:"Address to send HELLO to (default 255.255.255.255:3636)"`
	Timeout   time.Duration `long:"timeout" default:"3s" description:"How long to wait for ACK"`
}

func (c *DiscoverCommand) Execute(args []string) error {
	addr, err := discover(c.Broadcast, c.Timeout)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Found pastabot at " + addr))
	return nil
}

// Target holds the flags shared by commands that talk to one server.
type Target struct {
	Server    string `long:"server" env:"PASTABOT_SERVER" description:"Server address; discovered by broadcast when empty"`
	Broadcast string `long:"broadcast" env:"PASTABOT_BROADCAST" description:"Address to send HELLO to during discovery (default 255.255.255.255:3636)"`
}

func (t *Target) dial() (*protocol.Client, error) {
	addr := t.Server
	if addr == "" {
		var err error
		addr, err = discover(t.Broadcast, protocol.DefaultDiscoverTimeout)
		if err != nil {
			return nil, err
		}
		fmt.Println(dimStyle.Render("Using " + addr))
	}
	return protocol.Dial(addr)
}

type MoveCommand struct {
	Target
}

func (c *MoveCommand) Execute(args []string) error {
	client, err := c.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Move(); err != nil {
		return err
	}
	fmt.Println(dimStyle.Render("MOVE sent to " + client.RemoteAddr().String()))
	return nil
}

type SayCommand struct {
	Target
	Args struct {
		Text []string `positional-arg-name:"text" required:"1"`
	} `positional-args:"yes"`
}

func (c *SayCommand) Execute(args []string) error {
	client, err := c.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Say(strings.Join(c.Args.Text, " "))
}

func discover(broadcast string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	addr, err := protocol.Discover(ctx, broadcast)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}
