// Package server exposes the bidding engine over a one-shot JSON protocol:
// one request per connection, one response back. The engine itself is
// synchronous, so the server serializes every operation behind a single
// mutex; the worker pool only bounds how many connections are being read or
// written at once.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/cloudx-io/bidpool/api"
	"github.com/cloudx-io/bidpool/core"
)

const readTimeout = 30 * time.Second

// Server answers bidpool API requests against one auction instance.
type Server struct {
	mu         sync.Mutex
	auction    *core.Auction
	bank       core.Bank
	maxWorkers int
}

// New creates a server for the given auction and bank. maxWorkers bounds
// concurrent connections; further connections are rejected outright.
func New(auction *core.Auction, bank core.Bank, maxWorkers int) *Server {
	return &Server{
		auction:    auction,
		bank:       bank,
		maxWorkers: maxWorkers,
	}
}

// Serve accepts connections on the listener until it fails or is closed.
func (s *Server) Serve(listener net.Listener) error {
	log.Printf("INFO: bidpool server listening on %s", listener.Addr())
	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", s.maxWorkers)

	semaphore := make(chan struct{}, s.maxWorkers)
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	var req api.Request
	if err := json.Unmarshal(buf.Bytes(), &req); err != nil {
		log.Printf("ERROR: Failed to decode request: %v", err)
		s.respond(conn, errorResponse("failed to decode request: %v", err))
		return
	}

	log.Printf("INFO: Received request type: %s", req.Type)
	s.respond(conn, s.handleRequest(req))
}

func (s *Server) respond(conn net.Conn, response any) {
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// handleRequest dispatches one request against the engine. All engine and
// bank access happens under s.mu: the lowering guard reads winner state, so
// mutations and winner reads must never interleave.
func (s *Server) handleRequest(req api.Request) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Type {
	case api.TypePing:
		return api.PongResponse{
			Type:      "pong",
			Message:   "bidpool server is healthy",
			Timestamp: time.Now().Unix(),
		}

	case api.TypeBid:
		if err := s.auction.PlaceBid(req.User, req.Item, req.Amount); err != nil {
			return errorResponse("bid failed: %v", err)
		}
		return api.AckResponse{Type: "ok"}

	case api.TypeReplace:
		var opts []core.ReplaceOption
		if req.AllowLowering {
			opts = append(opts, core.AllowVisibleLowering())
		}
		if err := s.auction.ReplaceBid(req.User, req.Item, req.Amount, opts...); err != nil {
			return errorResponse("replace failed: %v", err)
		}
		return api.AckResponse{Type: "ok"}

	case api.TypeIncrease:
		if err := s.auction.IncreaseBid(req.User, req.Item, req.Amount); err != nil {
			return errorResponse("increase failed: %v", err)
		}
		return api.AckResponse{Type: "ok"}

	case api.TypeRemove:
		removed := s.auction.RemoveBid(req.User, req.Item)
		return api.RemoveResponse{Type: "ok", Removed: removed}

	case api.TypeClear:
		s.auction.Clear()
		return api.AckResponse{Type: "ok"}

	case api.TypeWinner:
		return api.WinnerResponse{Type: "winner", Winner: s.auction.ResolveWinner()}

	case api.TypeAllBids:
		return api.AllBidsResponse{
			Type:    "all_bids",
			Bids:    s.auction.GetAllBids(),
			Ranking: s.auction.GetRankedBids(),
		}

	case api.TypeUserBids:
		return api.UserBidsResponse{
			Type: "user_bids",
			User: req.User,
			Bids: s.auction.GetBidsForUser(req.User),
		}

	case api.TypeItemBids:
		return api.ItemBidsResponse{
			Type: "item_bids",
			Item: req.Item,
			Bids: s.auction.GetBidsForItem(req.Item),
		}

	case api.TypeReserved:
		return api.ReservedResponse{
			Type:      "reserved",
			User:      req.User,
			Reserved:  s.auction.GetReservedMoney(req.User),
			Available: s.bank.GetAvailableMoney(req.User),
		}

	case api.TypeStatus:
		digest, err := s.auction.Digest()
		if err != nil {
			return errorResponse("failed to compute state digest: %v", err)
		}
		return api.StatusResponse{
			Type:      "status",
			Items:     len(s.auction.GetAllBids()),
			Digest:    digest,
			Timestamp: time.Now().Unix(),
		}

	default:
		return errorResponse("unknown request type: %s", req.Type)
	}
}

func errorResponse(format string, args ...any) api.ErrorResponse {
	message := fmt.Sprintf(format, args...)
	log.Printf("ERROR: %s", message)
	return api.ErrorResponse{Type: "error", Message: message}
}
