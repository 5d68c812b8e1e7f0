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

package core

import "testing"

const (
	addrA Address = 1
	addrB Address = 2
	addrC Address = 3
	addrD Address = 4
)

func TestDVLearnAbsentInstallsActiveAndForwarding(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)

	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})

	active, ok := dv.Active(addrD)
	if !ok {
		t.Fatal("expected an Active entry for D")
	}
	if active.Metric != 3 || active.NextHop != addrB || active.TTL != cfg.DVEntryTTL {
		t.Fatalf("unexpected active entry %+v", active)
	}
	if !active.InForwardingTable {
		t.Fatal("expected the active entry to be installed in the forwarding table")
	}
	if got := fw.LongestPrefixMatch(addrD); got != addrB {
		t.Fatalf("LongestPrefixMatch(D) = %v, want B", got)
	}
	e, _ := fw.Get(active.FwHandle)
	if e.Metric != 2 {
		t.Fatalf("forwarding metric = %d, want 2", e.Metric)
	}
}

func TestDVLearnAbsentWithdrawnMetricIgnored(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: MaxTTL})
	if _, ok := dv.Active(addrD); ok {
		t.Fatal("should not learn an already-withdrawn route")
	}
}

func TestDVLearnNeverRecordsRouteToSelf(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrA, Netmask: Broadcast, Metric: 1})
	if _, ok := dv.Active(addrA); ok {
		t.Fatal("should never record a route to self")
	}
}

func TestDVBackupPromotionOnActiveWithdrawal(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)

	// Active via B: metric 2 -> DV.metric=3, forwarding metric=2.
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})
	// Backup via C: metric 4 -> DV.metric=5.
	dv.Learn(addrC, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 4})

	active, _ := dv.Active(addrD)
	active.TTL = 1
	dv.AgeTick()

	if got := fw.LongestPrefixMatch(addrD); got != addrC {
		t.Fatalf("LongestPrefixMatch(D) = %v, want C after promotion", got)
	}
	promoted, ok := dv.Active(addrD)
	if !ok {
		t.Fatal("expected a new Active entry after promotion")
	}
	if promoted.NextHop != addrC || promoted.Metric != 5 {
		t.Fatalf("unexpected promoted entry %+v", promoted)
	}
	e, _ := fw.Get(promoted.FwHandle)
	if e.Metric != 4 {
		t.Fatalf("forwarding metric after promotion = %d, want 4", e.Metric)
	}
}

func TestDVClassifyPresentAndUpdate(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})

	if c := dv.Classify(addrD, addrB, 3); c != DVPresent {
		t.Fatalf("Classify = %v, want DVPresent", c)
	}
	if c := dv.Classify(addrD, addrB, 7); c != DVUpdate {
		t.Fatalf("Classify = %v, want DVUpdate", c)
	}
	if c := dv.Classify(addrD, addrC, 3); c != DVIsBackup {
		t.Fatalf("Classify = %v, want DVIsBackup", c)
	}
	if c := dv.Classify(addrA, addrB, 1); c != DVPresent {
		t.Fatalf("Classify(self) = %v, want DVPresent", c)
	}
}

func TestDVUpdateRefreshesForwardingMetric(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 6})

	active, _ := dv.Active(addrD)
	if active.Metric != 7 {
		t.Fatalf("metric after update = %d, want 7", active.Metric)
	}
	e, _ := fw.Get(active.FwHandle)
	if e.Metric != 6 {
		t.Fatalf("forwarding metric after update = %d, want 6", e.Metric)
	}
}

func TestDVActiveWithdrawnWithNoBackupInvalidates(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})

	active, _ := dv.Active(addrD)
	active.TTL = 1
	dv.AgeTick()

	if got := fw.LongestPrefixMatch(addrD); got != 0 {
		t.Fatalf("expected no route after withdrawal with no backup, got %v", got)
	}
}

func TestDVReLearnAfterWithdrawalWithNoBackup(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})

	active, _ := dv.Active(addrD)
	active.TTL = 1
	dv.AgeTick()

	if got := fw.LongestPrefixMatch(addrD); got != 0 {
		t.Fatalf("expected no route after withdrawal with no backup, got %v", got)
	}
	// the invalidated entry must not shadow a genuinely new route: a
	// fresh advertisement for D from a different next hop should
	// classify ABSENT, not BACKUP, and install.
	if c := dv.Classify(addrD, addrC, 1); c != DVAbsent {
		t.Fatalf("Classify after invalidation = %v, want DVAbsent", c)
	}
	dv.Learn(addrC, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 1})
	if got := fw.LongestPrefixMatch(addrD); got != addrC {
		t.Fatalf("LongestPrefixMatch(D) = %v, want C after re-learning", got)
	}
}

func TestDVSplitHorizonPoisonReverse(t *testing.T) {
	fw := NewForwardingTable()
	dv := NewDVTable(addrA, fw)
	dv.Learn(addrB, DVAdv{Dest: addrD, Netmask: Broadcast, Metric: 2})

	toB := dv.Advertisements(addrB)
	if len(toB) != 1 || toB[0].Metric != MaxTTL {
		t.Fatalf("advertisement back to B should poison-reverse D, got %+v", toB)
	}

	toC := dv.Advertisements(addrC)
	if len(toC) != 1 || toC[0].Metric != 3 {
		t.Fatalf("advertisement to a different neighbor should carry the real metric, got %+v", toC)
	}
}
