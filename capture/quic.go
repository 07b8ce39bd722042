//go:build !tinygo

package capture

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// ALPN is the application protocol negotiated by capture collectors
const ALPN = "radiolink-capture"

// QUICWriter is a client stream to a capture collector
type QUICWriter struct {
	udp    *net.UDPConn
	conn   quic.Connection
	stream quic.Stream
}

// DialQUIC connects to a collector at addr and opens one stream. A nil
// tlsConf skips certificate verification, which suits a self-signed
// collector on a local network.
func DialQUIC(ctx context.Context, addr string, tlsConf *tls.Config) (*QUICWriter, error) {
	if tlsConf == nil {
		tlsConf = &tls.Config{InsecureSkipVerify: true, NextProtos: []string{ALPN}}
	}
	localAddr, err := net.ResolveUDPAddr("udp", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local UDP address: %w", err)
	}
	udpConn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create UDP socket: %w", err)
	}
	remoteAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("failed to resolve remote address %s: %w", addr, err)
	}

	conn, err := quic.Dial(ctx, udpConn, remoteAddr, tlsConf, nil)
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "failed to open stream")
		udpConn.Close()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return &QUICWriter{udp: udpConn, conn: conn, stream: stream}, nil
}

func (w *QUICWriter) Write(p []byte) (int, error) {
	return w.stream.Write(p)
}

// Close ends the stream and the connection
func (w *QUICWriter) Close() error {
	err := w.stream.Close()
	w.conn.CloseWithError(0, "capture closed")
	w.udp.Close()
	return err
}

// QUICCollector accepts capture streams from radios
type QUICCollector struct {
	udp      *net.UDPConn
	listener *quic.Listener
}

// ListenQUIC listens for capture streams on addr. A nil tlsConf uses a
// freshly generated self-signed certificate.
func ListenQUIC(addr string, tlsConf *tls.Config) (*QUICCollector, error) {
	if tlsConf == nil {
		var err error
		tlsConf, err = SelfSignedTLS()
		if err != nil {
			return nil, fmt.Errorf("failed to generate TLS config: %w", err)
		}
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address %s: %w", addr, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	listener, err := quic.Listen(udpConn, tlsConf, nil)
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("failed to create QUIC listener: %w", err)
	}
	return &QUICCollector{udp: udpConn, listener: listener}, nil
}

// Addr returns the local listening address
func (c *QUICCollector) Addr() net.Addr {
	return c.listener.Addr()
}

// Accept waits for the next radio and returns its capture stream
func (c *QUICCollector) Accept(ctx context.Context) (io.ReadCloser, string, error) {
	conn, err := c.listener.Accept(ctx)
	if err != nil {
		return nil, "", err
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(0, "no stream")
		return nil, "", err
	}
	return &collectorStream{conn: conn, stream: stream}, conn.RemoteAddr().String(), nil
}

func (c *QUICCollector) Close() error {
	err := c.listener.Close()
	c.udp.Close()
	return err
}

type collectorStream struct {
	conn   quic.Connection
	stream quic.Stream
}

func (s *collectorStream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

func (s *collectorStream) Close() error {
	s.stream.CancelRead(0)
	return s.conn.CloseWithError(0, "collector closed")
}

// SelfSignedTLS generates a server certificate for a collector
func SelfSignedTLS() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPN},
	}, nil
}
