package testutil

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	SafeAvatar  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	SafeTarget  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	MasterCopy  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	DefaultSalt = [32]byte{0xde, 0xad, 0xbe, 0xef}
)

func arguments(types ...string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		ty, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, err
		}
		args = append(args, abi.Argument{Type: ty})
	}
	return args, nil
}

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// EncodeAvatarDeployment builds the call data of a deployProxy transaction
// that deploys a quorum avatar with the given quorum and executors.
func EncodeAvatarDeployment(quorum *big.Int, executors ...common.Address) ([]byte, error) {
	if executors == nil {
		executors = []common.Address{}
	}

	initArgs, err := arguments("address", "address", "address[]", "uint256")
	if err != nil {
		return nil, err
	}
	initParams, err := initArgs.Pack(SafeAvatar, SafeTarget, executors, quorum)
	if err != nil {
		return nil, fmt.Errorf("failed to encode init params: %w", err)
	}

	setUpArgs, err := arguments("bytes")
	if err != nil {
		return nil, err
	}
	setUp, err := setUpArgs.Pack(initParams)
	if err != nil {
		return nil, fmt.Errorf("failed to encode setUp: %w", err)
	}
	setUp = append(selector("setUp(bytes)"), setUp...)

	deployArgs, err := arguments("address", "bytes", "bytes32")
	if err != nil {
		return nil, err
	}
	deploy, err := deployArgs.Pack(MasterCopy, setUp, DefaultSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deployProxy: %w", err)
	}

	return append(selector("deployProxy(address,bytes,bytes32)"), deploy...), nil
}
