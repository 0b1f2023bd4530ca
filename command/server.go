package command

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/m2cell/cellctrl/internal/calog"
)

// Server accepts line-delimited JSON command connections. Each connection
// is handled on its own goroutine; a per-remote-address rate limiter
// bounds how fast a single client can open new connections, a coarse
// defense against an accidental reconnect storm.
type Server struct {
	factoryFor func() *Factory
	ctxFor     func() *Context
	log        *calog.Log
	limiter    *catrate.Limiter

	listener net.Listener
}

// NewServer returns a Server. factoryFor and ctxFor are called once per
// accepted connection, since sequence_id state in Factory is
// per-connection.
func NewServer(factoryFor func() *Factory, ctxFor func() *Context, log *calog.Log) *Server {
	return &Server{
		factoryFor: factoryFor,
		ctxFor:     ctxFor,
		log:        log,
		limiter:    catrate.NewLimiter(map[time.Duration]int{time.Second: 5}),
	}
}

// Serve accepts connections on addr until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Err().Err(err).Log("accept failed")
				continue
			}
		}
		remote := conn.RemoteAddr().String()
		if host, _, err := net.SplitHostPort(remote); err == nil {
			remote = host
		}
		if _, ok := s.limiter.Allow(remote); !ok {
			_ = conn.Close()
			continue
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	factory := s.factoryFor()
	cctx := s.ctxFor()
	reader := bufio.NewReader(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = trimCRLF(line)
		if line == "" {
			continue
		}

		env, cmd, perr := factory.Parse([]byte(line))
		if perr != nil {
			s.log.Warning().Err(perr).Log("noack: protocol error")
			if env == nil {
				// Line itself wasn't valid JSON: nothing to echo back.
				continue
			}
			noack := Response{ID: "noack", SequenceID: env.SequenceID, UserInfo: perr.Error()}
			if err := s.writeResponse(conn, noack, nil); err != nil {
				return
			}
			continue
		}

		ack := Response{ID: "ack", SequenceID: env.SequenceID}
		if err := s.writeResponse(conn, ack, nil); err != nil {
			return
		}

		result, execErr := cmd.Execute(cctx, env.Params)
		final := Response{ID: "success", SequenceID: env.SequenceID}
		if execErr != nil {
			final.ID = "fail"
			result = nil
		}
		if err := s.writeResponse(conn, final, result); err != nil {
			return
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response, result json.RawMessage) error {
	b, err := marshalResponse(resp, result)
	if err != nil {
		return err
	}
	b = append(b, '\r', '\n')
	_, err = conn.Write(b)
	return err
}

// marshalResponse merges resp's base fields with result's fields (if any)
// into a single flat JSON object, so a command's extra result fields
// (e.g. cmd_echo's "msg") ride alongside id/sequence_id on the wire
// instead of nesting under a sub-key.
func marshalResponse(resp Response, result json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(result, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func trimCRLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
