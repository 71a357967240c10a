// Package abi holds the contract interfaces the staking client talks to.
package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const Erc20ABI = `[
{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"owner","type":"address"},{"indexed":true,"name":"spender","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Approval","type":"event"}
]`

const StakingABI = `[
{"inputs":[{"name":"amount","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"amount","type":"uint256"}],"name":"unstake","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"name":"restake","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"stakeOwner","type":"address"}],"name":"getStakeBalanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"stakeOwner","type":"address"}],"name":"getUnstakeStatus","outputs":[{"name":"cooldownAmount","type":"uint256"},{"name":"cooldownEndTime","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getTotalStakedTokens","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"stakeOwner","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"totalStakedAmount","type":"uint256"}],"name":"Staked","type":"event"}
]`

const DelegationABI = `[
{"inputs":[{"name":"to","type":"address"}],"name":"delegate","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"delegator","type":"address"}],"name":"getDelegation","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var (
	ERC20      = mustParse(Erc20ABI)
	Staking    = mustParse(StakingABI)
	Delegation = mustParse(DelegationABI)
)

func mustParse(def string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return a
}
