package chainquery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/network"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/network/cert"
)

// MaxIdleTimeout closes connections without traffic.
const MaxIdleTimeout = 5 * time.Minute

// Server answers chain queries over QUIC.
type Server struct {
	backend Backend
	tlsConf *tls.Config

	listener *quic.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server presenting tlsCert, which must be a valid node
// certificate.
func NewServer(backend Backend, tlsCert *tls.Certificate) (*Server, error) {
	if tlsCert == nil || tlsCert.Leaf == nil {
		return nil, fmt.Errorf("%w: certificate required", cert.ErrInvalidCertificate)
	}
	if err := cert.NewValidator().ValidateCertificate(tlsCert.Leaf); err != nil {
		return nil, err
	}
	return &Server{
		backend: backend,
		tlsConf: cert.ServerTLSConfig(tlsCert, []string{ALPN}),
	}, nil
}

// Listen starts accepting connections on addr.
func (s *Server) Listen(addr string) error {
	ln, err := quic.ListenAddr(addr, s.tlsConf, &quic.Config{MaxIdleTimeout: MaxIdleTimeout})
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop()
	log.Network.Info().Str("addr", ln.Addr().String()).Msg("chain query server listening")
	return nil
}

// Addr is the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops the server and waits for in-flight requests.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	s.cancel()
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				log.Network.Error().Err(err).Msg("accept connection")
			}
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn quic.Connection) {
	defer s.wg.Done()
	defer conn.CloseWithError(0, "")

	for {
		stream, err := conn.AcceptStream(s.ctx)
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.handleStream(stream); err != nil {
				log.Network.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("handle stream")
			}
		}()
	}
}

func (s *Server) handleStream(stream quic.Stream) error {
	defer stream.Close()

	var kind [1]byte
	if _, err := io.ReadFull(stream, kind[:]); err != nil {
		return fmt.Errorf("read request kind: %w", err)
	}
	msg, err := network.ReadMessageWithContext(s.ctx, stream)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	resp := s.dispatch(Kind(kind[0]), msg.Content)
	out, err := serializer.Encode(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return network.WriteMessageWithContext(s.ctx, stream, out)
}

func (s *Server) dispatch(kind Kind, payload []byte) Response {
	var (
		answer interface{}
		err    error
	)
	switch kind {
	case KindPoolStatus:
		var req PoolStatusRequest
		if err := serializer.Decode(payload, &req); err != nil {
			return errorResponse(fmt.Errorf("%w: %v", ErrBadRequest, err))
		}
		st, qerr := s.backend.PoolStatus(s.ctx, account.BakerID(req.BakerID))
		answer, err = poolStatusToWire(st), qerr
	case KindSubmissionStatus:
		var req SubmissionStatusRequest
		if err := serializer.Decode(payload, &req); err != nil {
			return errorResponse(fmt.Errorf("%w: %v", ErrBadRequest, err))
		}
		st, qerr := s.backend.SubmissionStatus(s.ctx, req.Reference)
		answer, err = SubmissionStatusResponse{Status: st.String()}, qerr
	case KindAppSettings:
		var req AppSettingsRequest
		if err := serializer.Decode(payload, &req); err != nil {
			return errorResponse(fmt.Errorf("%w: %v", ErrBadRequest, err))
		}
		r, qerr := s.backend.AppSettings(s.ctx, req.Version)
		answer, err = AppSettingsResponse{Status: r.Status, URL: r.URL}, qerr
	default:
		return errorResponse(fmt.Errorf("%w: %d", ErrUnknownKind, byte(kind)))
	}
	if err != nil {
		return errorResponse(err)
	}

	encoded, err := serializer.Encode(answer)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Code: CodeOK, Payload: encoded}
}

func errorResponse(err error) Response {
	code := CodeInternal
	switch {
	case errors.Is(err, ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnknownKind):
		code = CodeBadRequest
	}
	return Response{Code: code, Message: err.Error()}
}
