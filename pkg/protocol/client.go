package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoServer is returned when discovery gets no answer.
var ErrNoServer = errors.New("no server answered")

// Discovery timings.
const (
	DefaultDiscoverTimeout = 3 * time.Second
	resendInterval         = 500 * time.Millisecond
)

// DefaultBroadcast is the limited broadcast address on the server port.
var DefaultBroadcast = "255.255.255.255:" + strconv.Itoa(DefaultPort)

// Discover sends HELLO to target, normally a broadcast address, and returns
// the address of the first host that answers ACK. An empty target means
// DefaultBroadcast. HELLO is resent until ctx expires; without a deadline
// DefaultDiscoverTimeout applies.
func Discover(ctx context.Context, target string) (*net.UDPAddr, error) {
	target = discoveryTarget(target)
	raddr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDiscoverTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open socket: %w", err)
	}
	defer conn.Close()

	buf := make([]byte, MaxDatagram)
	for {
		if _, err := conn.WriteToUDP(TokenHello, raddr); err != nil {
			return nil, fmt.Errorf("send hello: %w", err)
		}

		wait := time.Now().Add(resendInterval)
		if deadline.Before(wait) {
			wait = deadline
		}
		if err := conn.SetReadDeadline(wait); err != nil {
			return nil, err
		}

		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					break
				}
				return nil, fmt.Errorf("receive: %w", err)
			}
			if bytes.Equal(buf[:n], TokenAck) {
				return from, nil
			}
		}

		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return nil, fmt.Errorf("discover via %s: %w", target, ErrNoServer)
		}
	}
}

func discoveryTarget(target string) string {
	if target == "" {
		return DefaultBroadcast
	}
	return target
}

// Client sends commands to one server.
type Client struct {
	conn *net.UDPConn
}

// Dial creates a client for the server at address.
func Dial(address string) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", address, err)
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the client's socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Hello checks that the server is alive. It waits for ACK until ctx
// expires, or DefaultDiscoverTimeout without a deadline.
func (c *Client) Hello(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultDiscoverTimeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	defer c.conn.SetReadDeadline(time.Time{})

	if _, err := c.conn.Write(TokenHello); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	buf := make([]byte, MaxDatagram)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return ErrNoServer
			}
			return fmt.Errorf("receive: %w", err)
		}
		if bytes.Equal(buf[:n], TokenAck) {
			return nil
		}
	}
}

// Move asks the server to run the move routine. There is no reply.
func (c *Client) Move() error {
	if _, err := c.conn.Write(TokenMove); err != nil {
		return fmt.Errorf("send move: %w", err)
	}
	return nil
}

// Say sends text to be spoken, split into datagrams the server can read
// whole. There is no reply.
func (c *Client) Say(text string) error {
	for _, chunk := range SplitText(text, MaxDatagram) {
		if chunk == string(TokenHello) || chunk == string(TokenMove) || chunk == string(TokenAck) {
			// Would be read as a command rather than spoken.
			chunk = strings.ToLower(chunk)
		}
		if _, err := c.conn.Write([]byte(chunk)); err != nil {
			return fmt.Errorf("send text: %w", err)
		}
	}
	return nil
}

// SplitText splits text at word boundaries into chunks of at most limit
// bytes. Words longer than limit are cut at rune boundaries.
func SplitText(text string, limit int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range strings.Fields(text) {
		for len(word) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(word[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(word)
			}
			chunks = append(chunks, word[:cut])
			word = word[cut:]
		}

		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= limit:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			flush()
			current.WriteString(word)
		}
	}
	flush()
	return chunks
}
