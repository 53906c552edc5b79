package accrual

import (
	"math/big"
	"testing"
)

func testConfig(threshold, credit int64) *ShopConfig {
	return &ShopConfig{Threshold: big.NewInt(threshold), CreditAmount: big.NewInt(credit)}
}

func TestAccrueCrossesTier(t *testing.T) {
	prev := Totals{Revenue: big.NewInt(45_000), OrdersCount: 3, CreditEarned: big.NewInt(0)}
	res := Accrue(prev, big.NewInt(10_000), testConfig(50_000, 1_000))

	if res.NewRevenue.Cmp(big.NewInt(55_000)) != 0 {
		t.Fatalf("new revenue = %s, want 55000", res.NewRevenue)
	}
	if res.NewOrdersCount != 4 {
		t.Fatalf("new orders count = %d, want 4", res.NewOrdersCount)
	}
	if res.NewCreditEarned.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("new credit earned = %s, want 1000", res.NewCreditEarned)
	}
	if res.DepositDelta.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("deposit delta = %s, want 1000", res.DepositDelta)
	}
}

func TestAccrueBelowTier(t *testing.T) {
	prev := Totals{Revenue: big.NewInt(45_000), CreditEarned: big.NewInt(0)}
	res := Accrue(prev, big.NewInt(4_000), testConfig(50_000, 1_000))

	if res.NewRevenue.Cmp(big.NewInt(49_000)) != 0 {
		t.Fatalf("new revenue = %s, want 49000", res.NewRevenue)
	}
	if res.NewCreditEarned.Sign() != 0 {
		t.Fatalf("new credit earned = %s, want 0", res.NewCreditEarned)
	}
	if res.DepositDelta.Sign() != 0 {
		t.Fatalf("deposit delta = %s, want 0", res.DepositDelta)
	}
}

func TestAccrueMultipleTiersAtOnce(t *testing.T) {
	prev := Totals{Revenue: big.NewInt(0), CreditEarned: big.NewInt(0)}
	res := Accrue(prev, big.NewInt(125_000), testConfig(50_000, 1_000))

	if res.NewCreditEarned.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("new credit earned = %s, want 2000", res.NewCreditEarned)
	}
	if res.DepositDelta.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("deposit delta = %s, want 2000", res.DepositDelta)
	}
}

func TestAccrueIsPure(t *testing.T) {
	prev := Totals{Revenue: big.NewInt(45_000), OrdersCount: 1, CreditEarned: big.NewInt(0)}
	amount := big.NewInt(10_000)
	cfg := testConfig(50_000, 1_000)

	first := Accrue(prev, amount, cfg)
	second := Accrue(prev, amount, cfg)

	if first.NewRevenue.Cmp(second.NewRevenue) != 0 ||
		first.NewCreditEarned.Cmp(second.NewCreditEarned) != 0 ||
		first.DepositDelta.Cmp(second.DepositDelta) != 0 ||
		first.NewOrdersCount != second.NewOrdersCount {
		t.Fatalf("repeated accrual diverged: %+v vs %+v", first, second)
	}
	if prev.Revenue.Cmp(big.NewInt(45_000)) != 0 || amount.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("accrual mutated its inputs")
	}
}

func TestAccrueClampsNegativeDelta(t *testing.T) {
	// The stored credit reflects a configuration that has since been lowered;
	// the engine must deposit nothing rather than a negative credit.
	prev := Totals{Revenue: big.NewInt(100_000), CreditEarned: big.NewInt(5_000)}
	res := Accrue(prev, big.NewInt(1_000), testConfig(50_000, 1_000))

	if res.DepositDelta.Sign() != 0 {
		t.Fatalf("deposit delta = %s, want 0", res.DepositDelta)
	}
	if res.NewCreditEarned.Cmp(big.NewInt(2_000)) != 0 {
		t.Fatalf("new credit earned = %s, want 2000", res.NewCreditEarned)
	}
}

func TestEarnedCreditIsMonotonic(t *testing.T) {
	cfg := testConfig(7_500, 300)
	totals := Totals{Revenue: big.NewInt(0), CreditEarned: big.NewInt(0)}
	prevCredit := big.NewInt(0)
	for i := 0; i < 200; i++ {
		res := Accrue(totals, big.NewInt(int64(137*(i+1))), cfg)
		if res.NewCreditEarned.Cmp(prevCredit) < 0 {
			t.Fatalf("credit decreased at step %d: %s < %s", i, res.NewCreditEarned, prevCredit)
		}
		if res.DepositDelta.Sign() < 0 {
			t.Fatalf("negative delta at step %d", i)
		}
		prevCredit = res.NewCreditEarned
		totals = Totals{Revenue: res.NewRevenue, OrdersCount: res.NewOrdersCount, CreditEarned: res.NewCreditEarned}
	}
	// The invariant the cache writer persists after every cycle.
	tiers := new(big.Int).Quo(totals.Revenue, cfg.Threshold)
	want := tiers.Mul(tiers, cfg.CreditAmount)
	if totals.CreditEarned.Cmp(want) != 0 {
		t.Fatalf("credit earned = %s, want floor(revenue/threshold)*credit = %s", totals.CreditEarned, want)
	}
}

func TestAccrueNilInputs(t *testing.T) {
	res := Accrue(Totals{}, nil, nil)
	if res.NewRevenue.Sign() != 0 || res.NewCreditEarned.Sign() != 0 || res.DepositDelta.Sign() != 0 {
		t.Fatalf("zero-value accrual produced non-zero result: %+v", res)
	}
	if res.NewOrdersCount != 1 {
		t.Fatalf("orders count = %d, want 1", res.NewOrdersCount)
	}
}
