// Command bidpoold runs the bidpool server on TCP or, with -vsock, on a
// vsock port for deployments where the engine runs inside a VM boundary.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/bidpool/bank"
	"github.com/cloudx-io/bidpool/core"
	"github.com/cloudx-io/bidpool/server"
)

const workersEnvKey = "BIDPOOL_MAX_WORKERS"

func main() {
	var (
		addr            = flag.String("addr", "127.0.0.1:7001", "TCP listen address")
		useVsock        = flag.Bool("vsock", false, "Listen on a vsock port instead of TCP")
		vsockPort       = flag.Uint("vsock-port", 7001, "vsock port to listen on when -vsock is set")
		maxWorkers      = flag.Int("max-workers", 8, fmt.Sprintf("Max concurrent connections (%s overrides)", workersEnvKey))
		startingBalance = flag.Int("starting-balance", bank.DefaultStartingBalance, "Balance credited to new accounts")
		discountLatest  = flag.Bool("discount-latest", false, "Hand rounding discounts to the latest bidders instead of the earliest")
	)
	flag.Parse()

	workers := *maxWorkers
	if value := os.Getenv(workersEnvKey); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			fmt.Fprintf(os.Stderr, "Error: %s must be a positive integer, got %q\n", workersEnvKey, value)
			os.Exit(1)
		}
		workers = parsed
	}

	moneyBank := bank.NewMemoryBank(bank.WithStartingBalance(*startingBalance))

	var opts []core.Option
	if *discountLatest {
		opts = append(opts, core.WithDiscountPolicy(core.DiscountLatest))
	}
	auction := core.NewAuction(moneyBank, opts...)
	defer auction.Close()

	listener, err := listen(*useVsock, *addr, uint32(*vsockPort))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to listen: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(auction, moneyBank, workers)
	if err := srv.Serve(listener); err != nil {
		log.Printf("ERROR: Server stopped: %v", err)
		os.Exit(1)
	}
}

func listen(useVsock bool, addr string, vsockPort uint32) (net.Listener, error) {
	if useVsock {
		return vsock.Listen(vsockPort, nil)
	}
	return net.Listen("tcp", addr)
}
