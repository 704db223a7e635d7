// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrZAPClosed      = errors.New("zap: connection closed")
	ErrZAPInvalidResp = errors.New("zap: invalid response")
	// ErrZAPFrameTooLarge is returned for messages that would exceed
	// maxFrameSize. The connection stays usable.
	ErrZAPFrameTooLarge = errors.New("zap: frame too large")
)

// maxFrameSize bounds a single ZAP frame.
const maxFrameSize = 64 * 1024 * 1024

// MessageType identifies ZAP message types
type MessageType uint8

const (
	MsgRequest       MessageType = 0x01
	MsgResponse      MessageType = 0x02
	MsgError         MessageType = 0x03 // transport level failure, payload is text
	MsgFunctionError MessageType = 0x05 // handler failure, payload is an error envelope
)

// ZAPConn is the client end of a ZAP connection. Requests are multiplexed
// over one TCP stream and matched to responses by request ID.
type ZAPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan zapResponse
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

type zapResponse struct {
	reply Reply
	err   error
}

// ZAPDial connects to a ZAP server
func ZAPDial(ctx context.Context, addr string) (*ZAPConn, error) {
	var d net.Dialer
	return zapDial(ctx, addr, d.DialContext)
}

func zapDial(ctx context.Context, addr string, dial func(context.Context, string, string) (net.Conn, error)) (*ZAPConn, error) {
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zap dial: %w", err)
	}

	zc := &ZAPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go zc.readLoop()
	return zc, nil
}

// Call sends one request to target and waits for its response.
func (z *ZAPConn) Call(ctx context.Context, target string, payload []byte) (Reply, error) {
	if z.closed.Load() {
		return Reply{}, ErrZAPClosed
	}
	if len(target) > 0xffff {
		return Reply{}, fmt.Errorf("zap: target name too long (%d bytes)", len(target))
	}

	// Encode: [4 len][1 type][4 reqID][2 targetLen][target][payload]
	msgLen := 1 + 4 + 2 + len(target) + len(payload)
	if msgLen > maxFrameSize {
		return Reply{}, fmt.Errorf("%w: request is %d bytes, limit %d", ErrZAPFrameTooLarge, msgLen, maxFrameSize)
	}

	requestID := z.nextID.Add(1)
	respCh := make(chan zapResponse, 1)
	z.pending.Store(requestID, respCh)
	defer z.pending.Delete(requestID)

	buf := make([]byte, 4+msgLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgLen))
	buf[4] = byte(MsgRequest)
	binary.BigEndian.PutUint32(buf[5:9], requestID)
	binary.BigEndian.PutUint16(buf[9:11], uint16(len(target)))
	copy(buf[11:], target)
	copy(buf[11+len(target):], payload)

	z.writeMu.Lock()
	_, err := z.conn.Write(buf)
	z.writeMu.Unlock()
	if err != nil {
		return Reply{}, fmt.Errorf("zap write: %w", err)
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case resp := <-respCh:
		return resp.reply, resp.err
	case <-z.readDone:
		return Reply{}, ErrZAPClosed
	}
}

func (z *ZAPConn) readLoop() {
	defer close(z.readDone)

	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(z.conn, header); err != nil {
			return
		}

		msgLen := binary.BigEndian.Uint32(header)
		if msgLen == 0 || msgLen > maxFrameSize {
			return
		}

		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(z.conn, msg); err != nil {
			return
		}

		if len(msg) < 5 {
			continue
		}

		msgType := MessageType(msg[0])
		requestID := binary.BigEndian.Uint32(msg[1:5])
		payload := msg[5:]

		ch, ok := z.pending.Load(requestID)
		if !ok {
			continue
		}
		respCh := ch.(chan zapResponse)
		switch msgType {
		case MsgResponse:
			respCh <- zapResponse{reply: Reply{Body: payload}}
		case MsgFunctionError:
			respCh <- zapResponse{reply: Reply{Body: payload, Failed: true}}
		case MsgError:
			respCh <- zapResponse{err: errors.New(string(payload))}
		default:
			respCh <- zapResponse{err: fmt.Errorf("%w: message type %#x", ErrZAPInvalidResp, uint8(msgType))}
		}
	}
}

// Close closes the connection
func (z *ZAPConn) Close() error {
	if z.closed.Swap(true) {
		return nil
	}
	return z.conn.Close()
}

// ZAPServer handles incoming ZAP RPC requests
type ZAPServer struct {
	listener net.Listener
	handler  ZAPHandler
	log      *zap.Logger
	conns    sync.Map
	closed   atomic.Bool
}

// ZAPHandler handles ZAP requests
type ZAPHandler interface {
	HandleZAP(ctx context.Context, target string, payload []byte) (Reply, error)
}

// ZAPHandlerFunc is a function adapter for ZAPHandler
type ZAPHandlerFunc func(ctx context.Context, target string, payload []byte) (Reply, error)

func (f ZAPHandlerFunc) HandleZAP(ctx context.Context, target string, payload []byte) (Reply, error) {
	return f(ctx, target, payload)
}

// NewZAPServer creates a new ZAP server
func NewZAPServer(listener net.Listener, handler ZAPHandler, log *zap.Logger) *ZAPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZAPServer{
		listener: listener,
		handler:  handler,
		log:      log,
	}
}

// Serve accepts connections until ctx ends or the server is closed.
func (s *ZAPServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("zap accept failed", zap.Error(err))
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// serverConn serializes response writes from concurrent handlers.
type serverConn struct {
	net.Conn
	writeMu sync.Mutex
}

func (s *ZAPServer) handleConn(ctx context.Context, raw net.Conn) {
	conn := &serverConn{Conn: raw}
	defer conn.Close()
	s.conns.Store(raw, struct{}{})
	defer s.conns.Delete(raw)

	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		msgLen := binary.BigEndian.Uint32(header)
		if msgLen == 0 || msgLen > maxFrameSize {
			s.log.Warn("zap frame size out of range", zap.Uint32("size", msgLen))
			return
		}

		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(conn, msg); err != nil {
			return
		}

		if len(msg) < 7 || MessageType(msg[0]) != MsgRequest {
			continue
		}
		requestID := binary.BigEndian.Uint32(msg[1:5])
		targetLen := binary.BigEndian.Uint16(msg[5:7])
		if len(msg) < 7+int(targetLen) {
			continue
		}
		target := string(msg[7 : 7+targetLen])
		payload := msg[7+targetLen:]

		go func() {
			reply, err := s.handler.HandleZAP(ctx, target, payload)
			s.sendResponse(conn, requestID, reply, err)
		}()
	}
}

func (s *ZAPServer) sendResponse(conn *serverConn, requestID uint32, reply Reply, err error) {
	var msgType MessageType
	var payload []byte
	switch {
	case err != nil:
		msgType = MsgError
		payload = []byte(err.Error())
	case reply.Failed:
		msgType = MsgFunctionError
		payload = reply.Body
	default:
		msgType = MsgResponse
		payload = reply.Body
	}
	if 1+4+len(payload) > maxFrameSize {
		s.log.Warn("zap response too large", zap.Uint32("request", requestID), zap.Int("size", len(payload)))
		msgType = MsgError
		payload = []byte(fmt.Sprintf("%s: response is %d bytes, limit %d", ErrZAPFrameTooLarge, len(payload), maxFrameSize))
	}

	msgLen := 1 + 4 + len(payload)
	buf := make([]byte, 4+msgLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgLen))
	buf[4] = byte(msgType)
	binary.BigEndian.PutUint32(buf[5:9], requestID)
	copy(buf[9:], payload)

	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	if _, err := conn.Write(buf); err != nil {
		s.log.Debug("zap response write failed", zap.Uint32("request", requestID), zap.Error(err))
	}
}

// Close closes the server
func (s *ZAPServer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.conns.Range(func(key, _ interface{}) bool {
		key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the listener address
func (s *ZAPServer) Addr() net.Addr {
	return s.listener.Addr()
}
