package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/CNES/opensand-sub000/pkg/archive"
)

const transferWriteTimeout = time.Minute

// TransferServer hands the current storage folder to whoever connects and
// starts a fresh one.
type TransferServer struct {
	listener net.Listener
	storage  StorageSwitcher

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTransferServer listens on addr.
func NewTransferServer(addr string, storage StorageSwitcher) (*TransferServer, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	log.Printf("Transfer server listening on %s", l.Addr())

	return &TransferServer{listener: l, storage: storage}, nil
}

// Addr is the listening address.
func (s *TransferServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled or Close is called.
func (s *TransferServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		_ = s.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("transfer accept: %w", err)
		}

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()

			s.handle(ctx, conn)
		}()
	}
}

func (s *TransferServer) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log.Printf("Transfer requested by %s", conn.RemoteAddr())

	previous, err := s.storage.SwitchStorage(ctx)
	if err != nil {
		log.Printf("Failed to switch storage for %s: %v", conn.RemoteAddr(), err)
		return
	}

	defer func() {
		if err := os.RemoveAll(previous); err != nil {
			log.Printf("Failed to remove %s: %v", previous, err)
		}
	}()

	if err := conn.SetWriteDeadline(time.Now().Add(transferWriteTimeout)); err != nil {
		log.Printf("Failed to set deadline for %s: %v", conn.RemoteAddr(), err)
	}

	n, err := archive.Send(conn, previous)
	if err != nil {
		log.Printf("Failed to send %s to %s: %v", previous, conn.RemoteAddr(), err)
		return
	}

	log.Printf("Sent %d bytes of archived data to %s", n, conn.RemoteAddr())
}

// Close stops accepting and waits for the transfers in flight.
func (s *TransferServer) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.mu.Unlock()

	err := s.listener.Close()

	s.wg.Wait()

	return err
}

// Start serves transfers until ctx is canceled or Stop is called.
func (s *TransferServer) Start(ctx context.Context) error {
	return s.Serve(ctx)
}

// Stop closes the listener and waits for the transfers in flight.
func (s *TransferServer) Stop(context.Context) error {
	return s.Close()
}
