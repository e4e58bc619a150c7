// Package smtpconn provides the low-level SMTP session primitives: a
// timeout-bound dial, command/reply exchange on a single connection and
// an opportunistic STARTTLS upgrade. One Session is one TCP connection;
// all operations on it are strictly sequential.
package smtpconn

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"
)

// Dialer is injectable for testing. Defaults to net.DialTimeout.
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

// Config configures a session.
type Config struct {
	ConnectTimeout time.Duration
	CommandTimeout time.Duration // rolling, re-armed before every exchange
	Port           string
	Dial           Dialer
	TLS            *tls.Config // optional; ServerName defaults to the MX host
}

// Session is a live SMTP connection to one MX host.
type Session struct {
	host string
	cfg  Config
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	tls  bool
}

// Dial connects to host on cfg.Port with the connect timeout.
// The server greeting is not consumed yet; call Greeting next.
func Dial(cfg Config, host string) (*Session, error) {
	dial := cfg.Dial
	if dial == nil {
		dial = net.DialTimeout
	}
	addr := net.JoinHostPort(host, cfg.Port)
	conn, err := dial("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &Session{
		host: host,
		cfg:  cfg,
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}, nil
}

// Greeting reads the server banner.
func (s *Session) Greeting() (Reply, error) {
	s.arm()
	return readReply(s.r)
}

// Cmd sends one CRLF-terminated command and reads the reply. Each
// exchange gets a fresh command deadline.
func (s *Session) Cmd(format string, args ...any) (Reply, error) {
	s.arm()
	if _, err := fmt.Fprintf(s.w, format+"\r\n", args...); err != nil {
		return Reply{}, fmt.Errorf("write: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return Reply{}, fmt.Errorf("flush: %w", err)
	}
	return readReply(s.r)
}

// Hello issues EHLO and, when the server advertises STARTTLS, upgrades
// the same connection and re-issues EHLO. A refused upgrade continues in
// clear text.
func (s *Session) Hello(heloName string) (Reply, error) {
	reply, err := s.Cmd("EHLO %s", heloName)
	if err != nil {
		return Reply{}, err
	}
	if !reply.Success() {
		return reply, nil
	}

	if !s.tls && strings.Contains(strings.ToUpper(reply.Text), "STARTTLS") {
		tlsReply, err := s.Cmd("STARTTLS")
		if err != nil {
			return Reply{}, err
		}
		if tlsReply.Code == 220 {
			if err := s.upgrade(); err != nil {
				return Reply{}, err
			}
			return s.Cmd("EHLO %s", heloName)
		}
	}
	return reply, nil
}

// Mail issues MAIL FROM. An empty sender is the null sender <>.
func (s *Session) Mail(sender string) (Reply, error) {
	return s.Cmd("MAIL FROM:<%s>", sender)
}

// Rcpt issues RCPT TO.
func (s *Session) Rcpt(recipient string) (Reply, error) {
	return s.Cmd("RCPT TO:<%s>", recipient)
}

// Rset resets the current mail transaction.
func (s *Session) Rset() (Reply, error) {
	return s.Cmd("RSET")
}

// Quit sends QUIT best-effort and closes the connection. Safe on every
// exit path, including after a transport error.
func (s *Session) Quit() {
	_ = s.conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = s.w.WriteString("QUIT\r\n")
	_ = s.w.Flush()
	_ = s.conn.Close()
}

// TLS reports whether the connection was upgraded.
func (s *Session) TLS() bool { return s.tls }

func (s *Session) arm() {
	_ = s.conn.SetDeadline(time.Now().Add(s.cfg.CommandTimeout))
}

// upgrade re-wraps the established connection in TLS.
func (s *Session) upgrade() error {
	cfg := s.cfg.TLS
	if cfg == nil {
		cfg = &tls.Config{ServerName: s.host}
	} else if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = s.host
	}

	tlsConn := tls.Client(s.conn, cfg)
	s.arm()
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("starttls handshake: %w", err)
	}
	s.conn = tlsConn
	s.r = bufio.NewReader(tlsConn)
	s.w = bufio.NewWriter(tlsConn)
	s.tls = true
	return nil
}
