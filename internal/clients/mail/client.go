package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"github.com/pkg/errors"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// defaultTimeout bounds a whole SMTP conversation when the context has no deadline.
const defaultTimeout = 30 * time.Second

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Message struct {
	To      string
	Subject string
	Body    string
}

type envelope struct {
	addr string
	host string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

type sendFunc func(ctx context.Context, e envelope) error

type Client struct {
	send sendFunc
}

func NewClient() *Client {
	return &Client{send: sendMail}
}

// Send delivers a plain text message with PLAIN auth, upgrading the connection
// with STARTTLS when the server offers it.
func (c *Client) Send(ctx context.Context, cfg Config, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if cfg.Host == "" || cfg.From == "" || cfg.Password == "" {
		return ErrNotConfigured
	}

	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	to, err := netmail.ParseAddress(message.To)
	if err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	err = c.send(ctx, envelope{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host: cfg.Host,
		auth: smtp.PlainAuth("", from.Address, cfg.Password, cfg.Host),
		from: from.Address,
		to:   []string{to.Address},
		msg:  compose(from, to, message),
	})
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMail is smtp.SendMail bound to the context: dialing and every command
// share its deadline, and cancellation closes the connection.
func sendMail(ctx context.Context, e envelope) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err = conn.SetDeadline(deadline); err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
			return err
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		if err = client.Auth(e.auth); err != nil {
			return err
		}
	}
	if err = client.Mail(e.from); err != nil {
		return err
	}
	for _, rcpt := range e.to {
		if err = client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(e.msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

func compose(from, to *netmail.Address, message Message) []byte {
	headers := map[string]string{
		"From":         from.String(),
		"To":           to.String(),
		"Subject":      mime.QEncoding.Encode("utf-8", headerBreaks.Replace(message.Subject)),
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=UTF-8",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	buf.WriteString("\r\n")
	buf.WriteString(message.Body)
	return buf.Bytes()
}
