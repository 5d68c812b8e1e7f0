//----------------------------------------------------------------------
// This file is part of leatea-routing.
// Copyright (C) 2022 Bernd Fix >Y<
//
// leatea-routing is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// leatea-routing is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

// Command fishnode is a reference composition root for a single L3
// node. It parses the original `[-noprompt] <head> [<own>]` argument
// shape, but the environment that would place this node on a real
// fishnet (radio range, peer discovery, the interactive `show`/`help`
// CLI) is outside core scope — here it boots the node against an
// in-memory netsim.Network of one, which a caller wires to peers with
// netsim.Network.Link before calling Run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lavertycalvin/Layer3/core"
	"github.com/lavertycalvin/Layer3/netsim"
)

func main() {
	noPrompt := flag.Bool("noprompt", false, "skip the interactive shell (reference only; no shell is implemented)")
	configPath := flag.String("config", "", "path to a JSON config file overriding core defaults")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: fishnode [-noprompt] [-config file] <head-address> [<own-address>]")
		os.Exit(2)
	}
	head, err := parseAddress(args[0])
	if err != nil {
		log.Fatalf("head address: %v", err)
	}
	own := head
	if len(args) > 1 {
		if own, err = parseAddress(args[1]); err != nil {
			log.Fatalf("own address: %v", err)
		}
	}
	if *configPath != "" {
		if err := core.LoadConfig(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *noPrompt {
		log.Println("starting without interactive shell")
	}

	net := netsim.NewNetwork()
	node := net.AddNode(own)
	log.Printf("fishnode %s up (head %s)", own, head)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down")
		cancel()
	}()

	listener := func(ev *core.Event) {
		log.Printf("event %d peer=%s ref=%s val=%d", ev.Type, ev.Peer, ev.Ref, ev.Val)
	}
	node.OnReceive(func(payload []byte, proto core.Proto, src core.Address) {
		log.Printf("l4 receive: proto=%d src=%s len=%d", proto, src, len(payload))
	})

	// Run starts node's own event loop goroutine internally and blocks
	// draining the medium until ctx is cancelled.
	net.Run(ctx, listener)
}

// parseAddress accepts a fishnet address as a decimal or 0x-prefixed
// hexadecimal uint32.
func parseAddress(s string) (core.Address, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return core.Address(v), nil
}
