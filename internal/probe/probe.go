// Package probe implements the per-record SMTP connection attempt: port 587
// with STARTTLS first, falling back to port 465 with implicit TLS, with LOGIN
// authentication and an optional test message submission.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/wneessen/go-mail/smtp"

	"github.com/audittools/smtp-audit/internal/record"
	"github.com/audittools/smtp-audit/internal/tlsutil"
)

// Default ports for the two transport strategies.
const (
	DefaultSTARTTLSPort = 587
	DefaultSSLPort      = 465
)

// DialContextFunc opens the TCP connection for an attempt. It is a field on
// Prober so tests can count and redirect connections.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config holds the read-only per-run settings of the executor.
type Config struct {
	// DryRun stops after successful authentication without submitting the
	// test message.
	DryRun bool

	// Recipient is the address the test message is sent to.
	Recipient string

	// Timeout bounds every individual blocking step of an attempt: dial,
	// greeting, EHLO, STARTTLS, AUTH and each submission command.
	Timeout time.Duration

	// HELO is the hostname announced in the EHLO command.
	HELO string

	// Subject and Body of the test message.
	Subject string
	Body    string

	// Insecure disables TLS certificate verification.
	Insecure bool
}

// Prober performs connection attempts for credential records. The zero value
// is not usable; construct it with New.
type Prober struct {
	cfg Config

	// DialContext may be overridden before first use to intercept outgoing
	// connections. Defaults to a net.Dialer bound to cfg.Timeout.
	DialContext DialContextFunc

	// TLSConfig may be overridden to supply the TLS client configuration
	// for a given server name.
	TLSConfig func(serverName string) *tls.Config

	// STARTTLSPort and SSLPort default to 587 and 465.
	STARTTLSPort int
	SSLPort      int
}

// New creates a Prober with defaults filled in.
func New(cfg Config) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.HELO == "" {
		cfg.HELO = "localhost"
	}
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	return &Prober{
		cfg:         cfg,
		DialContext: dialer.DialContext,
		TLSConfig: func(serverName string) *tls.Config {
			return tlsutil.ClientConfig(serverName, cfg.Insecure)
		},
		STARTTLSPort: DefaultSTARTTLSPort,
		SSLPort:      DefaultSSLPort,
	}
}

// Attempt runs the full port-587-then-465 sequence for one record and returns
// its outcome. All failures are folded into the outcome; Attempt never
// returns an error or panics on network faults.
//
// An explicit authentication rejection on 587 is authoritative and suppresses
// the 465 fallback, as does a post-auth send failure. Only connection and TLS
// level failures trigger the fallback; if the fallback also fails, the
// outcome reports the 465 error.
func (p *Prober) Attempt(ctx context.Context, rec record.Record) Outcome {
	out := Outcome{Host: rec.Host, Username: rec.Username, Raw: rec.Raw}

	kind, err := p.attemptSTARTTLS(ctx, rec)
	if err == nil {
		out.Success = true
		out.UsedPort = p.STARTTLSPort
		return out
	}
	slog.Debug("primary attempt failed",
		"host", rec.Host,
		"username", rec.Username,
		"port", p.STARTTLSPort,
		"kind", kind.String(),
		"error", err,
	)

	if kind == KindAuth || kind == KindSend {
		out.UsedPort = p.STARTTLSPort
		out.Kind = kind
		out.Detail = err.Error()
		return out
	}

	out.UsedPort = p.SSLPort
	kind, err = p.attemptSSL(ctx, rec)
	if err == nil {
		out.Success = true
		return out
	}
	slog.Debug("fallback attempt failed",
		"host", rec.Host,
		"username", rec.Username,
		"port", p.SSLPort,
		"kind", kind.String(),
		"error", err,
	)

	out.Kind = kind
	out.Detail = err.Error()
	return out
}

// attemptSTARTTLS connects to the STARTTLS port, upgrades the connection and
// runs the login/send sequence.
func (p *Prober) attemptSTARTTLS(ctx context.Context, rec record.Record) (ErrorKind, error) {
	addr := net.JoinHostPort(rec.Host, strconv.Itoa(p.STARTTLSPort))

	conn, err := p.DialContext(ctx, "tcp", addr)
	if err != nil {
		return KindConnection, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	// The deadline covers the server greeting read inside NewClient.
	_ = conn.SetDeadline(time.Now().Add(p.cfg.Timeout))
	client, err := smtp.NewClient(conn, rec.Host)
	if err != nil {
		_ = conn.Close()
		return KindConnection, fmt.Errorf("failed to read server greeting: %w", err)
	}
	defer client.Close()

	if err := p.step(conn, func() error { return client.Hello(p.cfg.HELO) }); err != nil {
		return KindConnection, fmt.Errorf("EHLO failed: %w", err)
	}

	if err := p.step(conn, func() error { return client.StartTLS(p.TLSConfig(rec.Host)) }); err != nil {
		return KindTLS, fmt.Errorf("STARTTLS negotiation failed: %w", err)
	}

	return p.loginAndSend(conn, client, rec)
}

// attemptSSL connects to the implicit-TLS port and runs the same login/send
// sequence over the encrypted connection.
func (p *Prober) attemptSSL(ctx context.Context, rec record.Record) (ErrorKind, error) {
	addr := net.JoinHostPort(rec.Host, strconv.Itoa(p.SSLPort))

	conn, err := p.DialContext(ctx, "tcp", addr)
	if err != nil {
		return KindConnection, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	_ = conn.SetDeadline(time.Now().Add(p.cfg.Timeout))
	tlsConn := tls.Client(conn, p.TLSConfig(rec.Host))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return KindTLS, fmt.Errorf("TLS handshake failed: %w", err)
	}

	_ = tlsConn.SetDeadline(time.Now().Add(p.cfg.Timeout))
	client, err := smtp.NewClient(tlsConn, rec.Host)
	if err != nil {
		_ = tlsConn.Close()
		return KindConnection, fmt.Errorf("failed to read server greeting: %w", err)
	}
	defer client.Close()

	if err := p.step(tlsConn, func() error { return client.Hello(p.cfg.HELO) }); err != nil {
		return KindConnection, fmt.Errorf("EHLO failed: %w", err)
	}

	return p.loginAndSend(tlsConn, client, rec)
}

// loginAndSend authenticates with AUTH LOGIN and, unless running dry, submits
// the test message. A 5xx reply to the AUTH exchange is an authoritative
// credential rejection; transport faults during the exchange stay
// connection-level so the caller may still fall back.
func (p *Prober) loginAndSend(conn net.Conn, client *smtp.Client, rec record.Record) (ErrorKind, error) {
	if ok, _ := client.Extension("AUTH"); !ok {
		return KindConnection, errors.New("server does not advertise SMTP AUTH")
	}

	auth := smtp.LoginAuth(rec.Username, rec.Password, rec.Host, false)
	if err := p.step(conn, func() error { return client.Auth(auth) }); err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) {
			return KindAuth, fmt.Errorf("authentication rejected: %w", err)
		}
		return KindConnection, fmt.Errorf("authentication exchange failed: %w", err)
	}

	if p.cfg.DryRun {
		_ = client.Quit()
		return KindNone, nil
	}

	if err := p.send(conn, client, rec); err != nil {
		return KindSend, fmt.Errorf("failed to send test message: %w", err)
	}

	_ = client.Quit()
	return KindNone, nil
}

// send submits the fixed test message through the authenticated session.
func (p *Prober) send(conn net.Conn, client *smtp.Client, rec record.Record) error {
	if err := p.step(conn, func() error { return client.Mail(rec.From) }); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := p.step(conn, func() error { return client.Rcpt(p.cfg.Recipient) }); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}

	msg := buildMessage(rec.From, p.cfg.Recipient, p.cfg.Subject, p.cfg.Body)
	return p.step(conn, func() error {
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("DATA rejected: %w", err)
		}
		if _, err := w.Write(msg); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to write message body: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("message rejected: %w", err)
		}
		return nil
	})
}

// step refreshes the per-step deadline before running one blocking exchange,
// so a stalled server cannot hold a worker past the configured timeout.
func (p *Prober) step(conn net.Conn, fn func() error) error {
	_ = conn.SetDeadline(time.Now().Add(p.cfg.Timeout))
	return fn()
}
