package server

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bidpool/api"
	"github.com/cloudx-io/bidpool/bank"
	"github.com/cloudx-io/bidpool/core"
)

// startServer runs a server on a loopback listener and returns its address.
func startServer(t *testing.T) string {
	t.Helper()
	moneyBank := bank.NewMemoryBank(bank.WithStartingBalance(100))
	auction := core.NewAuction(moneyBank)
	t.Cleanup(auction.Close)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	srv := New(auction, moneyBank, 4)
	go func() {
		_ = srv.Serve(listener) // returns once the listener closes
	}()
	return listener.Addr().String()
}

// roundTrip sends one request and decodes the response into out.
func roundTrip(t *testing.T, addr string, req api.Request, out any) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	assert.NoError(t, err)
	defer conn.Close()

	data, err := json.Marshal(req)
	assert.NoError(t, err)
	_, err = conn.Write(data)
	assert.NoError(t, err)
	// One-shot protocol: half-close to signal end of request.
	assert.NoError(t, conn.(*net.TCPConn).CloseWrite())

	assert.NoError(t, json.NewDecoder(conn).Decode(out))
}

func TestServer_Ping(t *testing.T) {
	addr := startServer(t)

	var resp api.PongResponse
	roundTrip(t, addr, api.Request{Type: api.TypePing}, &resp)
	check.Equal(t, "pong", resp.Type)
	check.True(t, resp.Timestamp > 0)
}

func TestServer_BidAndWinnerFlow(t *testing.T) {
	addr := startServer(t)

	var ack api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 1}, &ack)
	check.Equal(t, "ok", ack.Type)
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "bob", Item: "katamari", Amount: 10}, &ack)
	check.Equal(t, "ok", ack.Type)

	var winner api.WinnerResponse
	roundTrip(t, addr, api.Request{Type: api.TypeWinner}, &winner)
	assert.NotNil(t, winner.Winner)
	check.Equal(t, core.Item("katamari"), winner.Winner.Item)
	check.Equal(t, 10, winner.Winner.TotalBid)
	check.Equal(t, 2, winner.Winner.TotalCharge)
	check.Equal(t, map[core.Bidder]int{"bob": 2}, winner.Winner.MoneyOwed)

	var all api.AllBidsResponse
	roundTrip(t, addr, api.Request{Type: api.TypeAllBids}, &all)
	check.Equal(t, 2, len(all.Bids))
	assert.Equal(t, 2, len(all.Ranking))
	check.Equal(t, core.Item("katamari"), all.Ranking[0].Item)
}

func TestServer_MutationErrors(t *testing.T) {
	addr := startServer(t)

	var errResp api.ErrorResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 0}, &errResp)
	check.Equal(t, "error", errResp.Type)
	check.NotEqual(t, "", errResp.Message)

	roundTrip(t, addr, api.Request{Type: api.TypeReplace, User: "alice", Item: "pepsiman", Amount: 3}, &errResp)
	check.Equal(t, "error", errResp.Type)

	// More than the account's balance of 100.
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 101}, &errResp)
	check.Equal(t, "error", errResp.Type)
}

func TestServer_ReplaceWithAllowLowering(t *testing.T) {
	addr := startServer(t)

	var ack api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 5}, &ack)
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "bob", Item: "katamari", Amount: 2}, &ack)

	// Headroom is 2: lowering by 3 is rejected without the bypass.
	var errResp api.ErrorResponse
	roundTrip(t, addr, api.Request{Type: api.TypeReplace, User: "alice", Item: "pepsiman", Amount: 2}, &errResp)
	check.Equal(t, "error", errResp.Type)

	roundTrip(t, addr, api.Request{Type: api.TypeReplace, User: "alice", Item: "pepsiman", Amount: 2, AllowLowering: true}, &ack)
	check.Equal(t, "ok", ack.Type)
}

func TestServer_RemoveAndReserved(t *testing.T) {
	addr := startServer(t)

	var ack api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 30}, &ack)

	var reserved api.ReservedResponse
	roundTrip(t, addr, api.Request{Type: api.TypeReserved, User: "alice"}, &reserved)
	check.Equal(t, 30, reserved.Reserved)
	check.Equal(t, 70, reserved.Available)

	var userBids api.UserBidsResponse
	roundTrip(t, addr, api.Request{Type: api.TypeUserBids, User: "alice"}, &userBids)
	check.Equal(t, map[core.Item]int{"pepsiman": 30}, userBids.Bids)

	var removed api.RemoveResponse
	roundTrip(t, addr, api.Request{Type: api.TypeRemove, User: "alice", Item: "pepsiman"}, &removed)
	check.True(t, removed.Removed)
	roundTrip(t, addr, api.Request{Type: api.TypeRemove, User: "alice", Item: "pepsiman"}, &removed)
	check.False(t, removed.Removed)

	roundTrip(t, addr, api.Request{Type: api.TypeReserved, User: "alice"}, &reserved)
	check.Equal(t, 0, reserved.Reserved)
	check.Equal(t, 100, reserved.Available)
}

func TestServer_StatusDigest(t *testing.T) {
	addr := startServer(t)

	var before api.StatusResponse
	roundTrip(t, addr, api.Request{Type: api.TypeStatus}, &before)
	check.Equal(t, "status", before.Type)
	check.Equal(t, 0, before.Items)
	check.NotEqual(t, "", before.Digest)

	var ack api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 3}, &ack)

	var after api.StatusResponse
	roundTrip(t, addr, api.Request{Type: api.TypeStatus}, &after)
	check.Equal(t, 1, after.Items)
	check.NotEqual(t, before.Digest, after.Digest)

	var cleared api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeClear}, &cleared)
	roundTrip(t, addr, api.Request{Type: api.TypeStatus}, &after)
	check.Equal(t, before.Digest, after.Digest)
}

func TestServer_UnknownType(t *testing.T) {
	addr := startServer(t)

	var errResp api.ErrorResponse
	roundTrip(t, addr, api.Request{Type: "definitely_not_a_thing"}, &errResp)
	check.Equal(t, "error", errResp.Type)
}

func TestServer_ItemBids(t *testing.T) {
	addr := startServer(t)

	var ack api.AckResponse
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "alice", Item: "pepsiman", Amount: 2}, &ack)
	roundTrip(t, addr, api.Request{Type: api.TypeBid, User: "bob", Item: "pepsiman", Amount: 3}, &ack)

	var itemBids api.ItemBidsResponse
	roundTrip(t, addr, api.Request{Type: api.TypeItemBids, Item: "pepsiman"}, &itemBids)
	check.Equal(t, map[core.Bidder]int{"alice": 2, "bob": 3}, itemBids.Bids)

	itemBids = api.ItemBidsResponse{}
	roundTrip(t, addr, api.Request{Type: api.TypeItemBids, Item: "katamari"}, &itemBids)
	check.Equal(t, map[core.Bidder]int{}, itemBids.Bids)
}
