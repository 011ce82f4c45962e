// Package votecontract implements token-weighted governance inside the
// governance context.
//
// The module owns admin custody (two-step transfer), the proposal registry,
// and the vote ledger with balance-weighted voting. Caller identity and the
// token ledger are host capabilities consumed through ports; business rules
// live in domain/application layers with infrastructure isolated behind
// adapters.
package votecontract
