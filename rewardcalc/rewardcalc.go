// Package rewardcalc holds the pure arithmetic the task engine needs to
// turn an escrowed task-wallet balance into per-participant shares and
// delivery-credit rewards, without touching the ledger itself. Adapted
// from the teacher's metering cost-calculation engine (same shape: stateless
// arithmetic helpers plus a small sentinel-error type), repointed at
// settlement math instead of token pricing.
package rewardcalc

// DeliveryCreditRate converts a donated amount into the donor's delivery
// credit, independent of final settlement (SPEC_FULL.md §4.9, supplementing
// spec.md's settlement algorithm with original_source's per-delivery credit
// award). floor(amount/100): donations under 100 units award no credit.
// task.Service.Deliver does not call it, so no credit is awarded.
func DeliveryCreditRate(amount int64) int64 {
	if amount < 0 {
		return 0
	}
	return amount / 100
}

// SplitShares divides balance evenly among n recipients, returning each
// recipient's integer share and the leftover "dust" that floor division
// cannot distribute (spec.md §4.6.3 Settle: "split balance among delivered
// participants via integer division, residue left in the task wallet").
func SplitShares(balance int64, n int) (share int64, dust int64) {
	if n <= 0 {
		return 0, balance
	}
	share = balance / int64(n)
	dust = balance - share*int64(n)
	return share, dust
}
