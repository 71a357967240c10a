package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	sb "github.com/cordialsys/stakeboard"
	"github.com/cordialsys/stakeboard/chain/evm/abi"
	"github.com/cordialsys/stakeboard/client"
	xcerrors "github.com/cordialsys/stakeboard/client/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DEFAULT_GAS_TIP = 3_000_000_000

// Gas limits used when estimation is not possible.
const (
	DefaultApproveGasLimit = 80_000
	DefaultStakingGasLimit = 300_000
)

// Backend is the part of an ethereum rpc client used here. *ethclient.Client implements it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ Backend = &ethclient.Client{}

// Confirmer asks the user to approve a transaction before it is signed.
// Returning an error aborts the submission.
type Confirmer func(ctx context.Context, params sb.TxParams) error

// Client for the staking contracts on an EVM chain
type Client struct {
	chain   *sb.ChainConfig
	backend Backend
	signer  Signer
	confirm Confirmer
	log     *logrus.Entry

	// consecutive failed polls before a pending transaction gives up
	MaxRPCFailures int
}

var _ client.Client = &Client{}

// Dial connects to the chain's rpc url.
func Dial(ctx context.Context, chain *sb.ChainConfig, signer Signer, confirm Confirmer) (*Client, error) {
	url, err := chain.ClientURL()
	if err != nil {
		return nil, err
	}
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing url: %v", chain.URL)
	}
	return NewClient(chain, eth, signer, confirm), nil
}

// NewClient returns a client over backend. signer may be nil for a read-only client.
func NewClient(chain *sb.ChainConfig, backend Backend, signer Signer, confirm Confirmer) *Client {
	if chain.Limiter == nil {
		chain.Configure()
	}
	return &Client{
		chain:          chain,
		backend:        backend,
		signer:         signer,
		confirm:        confirm,
		log:            logrus.WithField("chain", chain.Chain),
		MaxRPCFailures: 5,
	}
}

func (cli *Client) wait(ctx context.Context) error {
	if err := cli.chain.Limiter.Wait(ctx); err != nil {
		return xcerrors.ConnectionUnavailablef("rate limit: %v", err)
	}
	return nil
}

func (cli *Client) Ping(ctx context.Context) error {
	if err := cli.wait(ctx); err != nil {
		return err
	}
	_, err := cli.backend.BlockNumber(ctx)
	return classify(err, "ping")
}

// Calldata returns the contract to call and the encoded call for params.
func (cli *Client) Calldata(params sb.TxParams) (common.Address, []byte, error) {
	contracts := cli.chain.Contracts
	amount := params.Amount.Int()
	if params.Action.HasAmount() {
		if params.Amount.Sign() <= 0 {
			return common.Address{}, nil, xcerrors.UserInputInvalidf("amount must be greater than zero")
		}
		if _, overflow := uint256.FromBig(amount); overflow {
			return common.Address{}, nil, xcerrors.UserInputInvalidf("amount %s does not fit in uint256", params.Amount.String())
		}
	}
	var to sb.ContractAddress
	var data []byte
	var err error
	switch params.Action {
	case sb.Approve:
		to = contracts.Token
		data, err = abi.ERC20.Pack("approve", common.HexToAddress(string(contracts.Staking)), amount)
	case sb.Stake:
		to = contracts.Staking
		data, err = abi.Staking.Pack("stake", amount)
	case sb.Unstake:
		to = contracts.Staking
		data, err = abi.Staking.Pack("unstake", amount)
	case sb.Restake:
		to = contracts.Staking
		data, err = abi.Staking.Pack("restake")
	case sb.Withdraw:
		to = contracts.Staking
		data, err = abi.Staking.Pack("withdraw")
	case sb.Delegate:
		if !params.Guardian.Valid() {
			return common.Address{}, nil, xcerrors.UserInputInvalidf("invalid guardian address %q", params.Guardian)
		}
		to = contracts.Delegation
		data, err = abi.Delegation.Pack("delegate", common.HexToAddress(string(params.Guardian)))
	default:
		return common.Address{}, nil, xcerrors.UserInputInvalidf("unsupported action %q", params.Action)
	}
	if err != nil {
		return common.Address{}, nil, errors.Wrapf(err, "encoding %s", params.Action)
	}
	if !to.Valid() {
		return common.Address{}, nil, fmt.Errorf("no %s contract configured", params.Action)
	}
	return common.HexToAddress(string(to)), data, nil
}

// Submit builds, signs and broadcasts a transaction.
func (cli *Client) Submit(ctx context.Context, params sb.TxParams) (client.PendingTx, error) {
	if cli.signer == nil {
		return nil, xcerrors.UserInputInvalidf("no wallet configured")
	}
	if !params.From.Equal(cli.signer.Address()) {
		return nil, xcerrors.UserInputInvalidf("wallet %s cannot sign for %s", cli.signer.Address(), params.From)
	}
	to, data, err := cli.Calldata(params)
	if err != nil {
		return nil, err
	}
	if cli.confirm != nil {
		if err := cli.confirm(ctx, params); err != nil {
			return nil, classify(err, "confirm")
		}
	}

	tx, chainID, err := cli.buildTx(ctx, params, to, data)
	if err != nil {
		return nil, err
	}
	signed, err := cli.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, classify(err, "signing")
	}
	hash := sb.NormalizeTxHash(signed.Hash().Hex())
	log := cli.log.WithFields(logrus.Fields{
		"action": params.Action,
		"tx":     hash,
		"nonce":  signed.Nonce(),
		"gas":    signed.Gas(),
	})

	if err := cli.wait(ctx); err != nil {
		return nil, err
	}
	if err := cli.backend.SendTransaction(ctx, signed); err != nil {
		if !alreadyKnown(err) {
			return nil, classify(err, fmt.Sprintf("sending transaction '%v'", hash))
		}
		log.WithError(err).Warn("transaction was already broadcast")
	}
	log.Info("submitted transaction")
	replay := ethereum.CallMsg{
		From:  common.HexToAddress(string(params.From)),
		To:    signed.To(),
		Gas:   signed.Gas(),
		Value: signed.Value(),
		Data:  signed.Data(),
	}
	return newPendingTx(cli, hash, replay), nil
}

func (cli *Client) buildTx(ctx context.Context, params sb.TxParams, to common.Address, data []byte) (*types.Transaction, *big.Int, error) {
	from := common.HexToAddress(string(params.From))
	if err := cli.wait(ctx); err != nil {
		return nil, nil, err
	}

	chainID := big.NewInt(cli.chain.ChainID)
	if cli.chain.ChainID == 0 {
		id, err := cli.backend.ChainID(ctx)
		if err != nil {
			return nil, nil, classify(err, "could not lookup chain_id")
		}
		chainID = id
	}
	nonce, err := cli.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, nil, classify(err, "fetching nonce")
	}
	header, err := cli.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, classify(err, "fetching latest header")
	}
	tipCap, err := cli.backend.SuggestGasTipCap(ctx)
	if err != nil {
		cli.log.WithError(err).Debug("could not suggest gas tip, using default")
		tipCap = big.NewInt(DEFAULT_GAS_TIP)
	}
	tip, err := cli.chain.GasPriority.Apply(sb.AmountBlockchain(*tipCap))
	if err != nil {
		return nil, nil, &xcerrors.Error{Status: xcerrors.UserInputInvalid, Message: err.Error()}
	}
	// leave room for the base fee to double before the tx is mined
	feeCap := sb.NewAmountBlockchainFromUint64(0)
	if header.BaseFee != nil {
		baseFee := sb.AmountBlockchain(*header.BaseFee)
		feeCap = sb.MultiplyByFloat(baseFee, 2)
	}
	feeCap = feeCap.Add(&tip)

	gasLimit, err := cli.estimateGas(ctx, params, from, to, data)
	if err != nil {
		return nil, nil, err
	}
	gasAmount := sb.NewAmountBlockchainFromUint64(gasLimit)
	maxSpend := feeCap.Mul(&gasAmount)
	if err := sb.CheckFeeLimit(maxSpend, cli.chain); err != nil {
		return nil, nil, &xcerrors.Error{Status: xcerrors.UserInputInvalid, Message: err.Error()}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip.Int(),
		GasFeeCap: feeCap.Int(),
		Gas:       gasLimit,
		To:        &to,
		Value:     big.NewInt(0),
		Data:      data,
	})
	return tx, chainID, nil
}

func (cli *Client) estimateGas(ctx context.Context, params sb.TxParams, from, to common.Address, data []byte) (uint64, error) {
	gasLimit, err := cli.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		status := CheckError(err)
		if status == xcerrors.TransactionFailedOnChain || status == xcerrors.UserInputInvalid {
			return 0, &xcerrors.Error{Status: status, Message: errors.Wrapf(err, "%s would fail", params.Action).Error()}
		}
		cli.log.WithError(err).Debug("could not estimate gas, using default")
		if params.Action == sb.Approve {
			return DefaultApproveGasLimit, nil
		}
		return DefaultStakingGasLimit, nil
	}
	// contracts can spend slightly more than simulated
	return gasLimit + gasLimit/5, nil
}

func (cli *Client) call(ctx context.Context, contract sb.ContractAddress, data []byte) ([]byte, error) {
	if err := cli.wait(ctx); err != nil {
		return nil, err
	}
	to := common.HexToAddress(string(contract))
	out, err := cli.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("calling %s", contract))
	}
	return out, nil
}

func (cli *Client) FetchLiquidBalance(ctx context.Context, address sb.Address) (sb.AmountBlockchain, error) {
	zero := sb.NewAmountBlockchainFromUint64(0)
	data, err := abi.ERC20.Pack("balanceOf", common.HexToAddress(string(address)))
	if err != nil {
		return zero, err
	}
	out, err := cli.call(ctx, cli.chain.Contracts.Token, data)
	if err != nil {
		return zero, err
	}
	var balance *big.Int
	if err := abi.ERC20.UnpackIntoInterface(&balance, "balanceOf", out); err != nil {
		return zero, errors.Wrap(err, "decoding balance")
	}
	return sb.AmountBlockchain(*balance), nil
}

func (cli *Client) FetchAccount(ctx context.Context, address sb.Address) (*client.Account, error) {
	owner := common.HexToAddress(string(address))
	account := &client.Account{Address: sb.NormalizeAddress(string(address))}

	liquid, err := cli.FetchLiquidBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	account.Liquid = liquid

	data, _ := abi.ERC20.Pack("allowance", owner, common.HexToAddress(string(cli.chain.Contracts.Staking)))
	out, err := cli.call(ctx, cli.chain.Contracts.Token, data)
	if err != nil {
		return nil, err
	}
	var allowance *big.Int
	if err := abi.ERC20.UnpackIntoInterface(&allowance, "allowance", out); err != nil {
		return nil, errors.Wrap(err, "decoding allowance")
	}
	account.Allowance = sb.AmountBlockchain(*allowance)

	data, _ = abi.Staking.Pack("getStakeBalanceOf", owner)
	out, err = cli.call(ctx, cli.chain.Contracts.Staking, data)
	if err != nil {
		return nil, err
	}
	var staked *big.Int
	if err := abi.Staking.UnpackIntoInterface(&staked, "getStakeBalanceOf", out); err != nil {
		return nil, errors.Wrap(err, "decoding stake")
	}
	account.Staked = sb.AmountBlockchain(*staked)

	data, _ = abi.Staking.Pack("getUnstakeStatus", owner)
	out, err = cli.call(ctx, cli.chain.Contracts.Staking, data)
	if err != nil {
		return nil, err
	}
	var unstake struct {
		CooldownAmount  *big.Int
		CooldownEndTime *big.Int
	}
	if err := abi.Staking.UnpackIntoInterface(&unstake, "getUnstakeStatus", out); err != nil {
		return nil, errors.Wrap(err, "decoding unstake status")
	}
	account.CoolingDown = sb.AmountBlockchain(*unstake.CooldownAmount)
	if unstake.CooldownEndTime.Sign() > 0 {
		account.CooldownReleaseAt = time.Unix(unstake.CooldownEndTime.Int64(), 0).UTC()
	}

	if cli.chain.Contracts.Delegation.Valid() {
		data, _ = abi.Delegation.Pack("getDelegation", owner)
		out, err = cli.call(ctx, cli.chain.Contracts.Delegation, data)
		if err != nil {
			return nil, err
		}
		var delegate common.Address
		if err := abi.Delegation.UnpackIntoInterface(&delegate, "getDelegation", out); err != nil {
			return nil, errors.Wrap(err, "decoding delegation")
		}
		// delegating to yourself means no guardian is selected
		if delegate != (common.Address{}) && delegate != owner {
			guardian := sb.NormalizeAddress(delegate.Hex())
			account.Guardian = &guardian
		}
	}
	return account, nil
}
