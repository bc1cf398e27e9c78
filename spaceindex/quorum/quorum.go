// Package quorum recovers the quorum parameter of an avatar execution strategy
// from the call data of the proxy factory deployment that created it.
//
// The call data is nested three levels deep:
//
//	deployProxy(address implementation, bytes initializer, bytes32 salt)
//	  initializer = setUp(bytes initParams)
//	    initParams = (address owner, address target, address[] spaces, uint256 quorum)
//
// Each level is described by a row of Stages. The offsets are specific to these
// three signatures; a new layout needs a new table, not a patch.
package quorum

import (
	"fmt"
	"math/big"
)

const (
	DeployProxySignature    = "(address,bytes,bytes32)"
	SetUpSignature          = "bytes"
	AvatarInitArgsSignature = "(address,address,address[],uint256)"
)

// Stages is the decoding table, outermost call first.
var Stages = []*Stage{
	newStage("deployProxy", DeployProxySignature, selectorLength, true, 1),
	newStage("setUp", SetUpSignature, selectorLength, false, 0),
	newStage("initParams", AvatarInitArgsSignature, 0, true, 3),
}

// Extract walks Stages over input and returns the quorum.
func Extract(input []byte) (*big.Int, error) {
	var current any = input

	for i, stage := range Stages {
		data, ok := current.([]byte)
		if !ok {
			return nil, &StageError{Stage: stage.Name, Err: fmt.Errorf("expected bytes from previous stage, got %T", current)}
		}

		v, err := stage.Decode(data)
		if err != nil {
			return nil, err
		}

		if i == len(Stages)-1 {
			q, ok := v.(*big.Int)
			if !ok || q == nil {
				return nil, &StageError{Stage: stage.Name, Err: fmt.Errorf("expected uint256, got %T", v)}
			}
			return new(big.Int).Set(q), nil
		}

		current = v
	}

	return nil, fmt.Errorf("no stages configured")
}

// ExtractQuorum is Extract without the diagnostics: malformed input of any
// kind yields (nil, false).
func ExtractQuorum(input []byte) (*big.Int, bool) {
	q, err := Extract(input)
	if err != nil {
		return nil, false
	}
	return q, true
}
