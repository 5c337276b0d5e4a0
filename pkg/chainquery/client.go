package chainquery

import (
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/appsettings"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/network"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/network/cert"
)

// DefaultTimeout applies to a request when ClientConfig.Timeout is zero.
const DefaultTimeout = 10 * time.Second

type ClientConfig struct {
	Address string
	// NodeKey is the Ed25519 key the node certificate must carry.
	NodeKey ed25519.PublicKey
	Timeout time.Duration
}

// Client queries a chain query node. It keeps one QUIC connection open and
// redials after the connection is lost. It is safe for concurrent use.
type Client struct {
	addr    string
	tlsConf *tls.Config
	timeout time.Duration

	mu     sync.Mutex
	conn   quic.Connection
	closed bool
}

var (
	_ Backend             = (*Client)(nil)
	_ pool.StatusQuerier  = (*Client)(nil)
	_ appsettings.Fetcher = (*Client)(nil)
)

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: address required", ErrBadRequest)
	}
	if len(cfg.NodeKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: node key must be %d bytes", cert.ErrInvalidCertificate, ed25519.PublicKeySize)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		addr:    cfg.Address,
		tlsConf: cert.ClientTLSConfig(cfg.NodeKey, []string{ALPN}),
		timeout: timeout,
	}, nil
}

func (c *Client) PoolStatus(ctx context.Context, id account.BakerID) (pool.Status, error) {
	var resp PoolStatusResponse
	if err := c.request(ctx, KindPoolStatus, PoolStatusRequest{BakerID: uint64(id)}, &resp); err != nil {
		return pool.Status{}, fmt.Errorf("pool %s: %w", id, err)
	}
	return poolStatusFromWire(resp), nil
}

func (c *Client) SubmissionStatus(ctx context.Context, reference string) (submission.Status, error) {
	var resp SubmissionStatusResponse
	if err := c.request(ctx, KindSubmissionStatus, SubmissionStatusRequest{Reference: reference}, &resp); err != nil {
		return 0, fmt.Errorf("submission %s: %w", reference, err)
	}
	return submission.ParseStatus(resp.Status)
}

func (c *Client) AppSettings(ctx context.Context, version string) (appsettings.Response, error) {
	var resp AppSettingsResponse
	if err := c.request(ctx, KindAppSettings, AppSettingsRequest{Version: version}, &resp); err != nil {
		return appsettings.Response{}, fmt.Errorf("app settings: %w", err)
	}
	return appsettings.Response{Status: resp.Status, URL: resp.URL}, nil
}

// Close closes the connection. Later requests fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.CloseWithError(0, "")
	c.conn = nil
	return err
}

func (c *Client) connection(ctx context.Context) (quic.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.conn != nil && c.conn.Context().Err() == nil {
		return c.conn, nil
	}

	conn, err := quic.DialAddr(ctx, c.addr, c.tlsConf, &quic.Config{MaxIdleTimeout: MaxIdleTimeout})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	log.Network.Debug().Str("addr", c.addr).Msg("connected to chain query node")
	c.conn = conn
	return conn, nil
}

func (c *Client) request(ctx context.Context, kind Kind, req, answer interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := serializer.Encode(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	conn, err := c.connection(ctx)
	if err != nil {
		return err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.CancelRead(0)

	if _, err := stream.Write([]byte{byte(kind)}); err != nil {
		return fmt.Errorf("write request kind: %w", err)
	}
	if err := network.WriteMessageWithContext(ctx, stream, payload); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	// Closing the send side tells the node the request is complete.
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}

	msg, err := network.ReadMessageWithContext(ctx, stream)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := serializer.Decode(msg.Content, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	switch resp.Code {
	case CodeOK:
	case CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Message)
	case CodeBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, resp.Message)
	default:
		return fmt.Errorf("%w: %s", ErrRemote, resp.Message)
	}

	if err := serializer.Decode(resp.Payload, answer); err != nil {
		return fmt.Errorf("decode %s answer: %w", kind, err)
	}
	return nil
}
