package quorum

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	selectorLength = 4
	wordLength     = 32
)

// tupleHead is the 32-byte ABI head that points a dynamic tuple at offset 32.
// Prepending it turns a bare argument list into a standalone encoded tuple.
var tupleHead = func() []byte {
	h := make([]byte, wordLength)
	h[wordLength-1] = 0x20
	return h
}()

// ErrTooShort is returned when a stage's input cannot even hold its selector.
var ErrTooShort = errors.New("input too short")

// Stage describes one level of the nested call data.
type Stage struct {
	Name string

	// Signature is either a single ABI type ("bytes") or a parenthesised
	// tuple ("(address,bytes,bytes32)").
	Signature string

	// SelectorLen leading bytes are dropped before decoding.
	SelectorLen int

	// TupleHead prepends the 32-byte tuple offset word before decoding.
	TupleHead bool

	// Field is the position of the decoded value handed to the next stage.
	Field int

	args abi.Arguments
}

// StageError reports which stage rejected the input.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStage(name, signature string, selectorLen int, tupleHead bool, field int) *Stage {
	s := &Stage{
		Name:        name,
		Signature:   signature,
		SelectorLen: selectorLen,
		TupleHead:   tupleHead,
		Field:       field,
	}
	args, err := parseSignature(signature)
	if err != nil {
		panic(fmt.Errorf("quorum: invalid signature %q for stage %s: %w", signature, name, err))
	}
	s.args = args
	return s
}

// parseSignature turns "(t0,t1,...)" into a single tuple argument with
// components arg0..argN, and a bare type into a single argument of that type.
func parseSignature(signature string) (abi.Arguments, error) {
	if !strings.HasPrefix(signature, "(") {
		t, err := abi.NewType(signature, "", nil)
		if err != nil {
			return nil, err
		}
		return abi.Arguments{{Name: "value", Type: t}}, nil
	}

	if !strings.HasSuffix(signature, ")") {
		return nil, fmt.Errorf("unterminated tuple")
	}

	inner := signature[1 : len(signature)-1]
	if inner == "" {
		return nil, fmt.Errorf("empty tuple")
	}

	var components []abi.ArgumentMarshaling
	for i, typ := range strings.Split(inner, ",") {
		components = append(components, abi.ArgumentMarshaling{
			Name: fmt.Sprintf("arg%d", i),
			Type: strings.TrimSpace(typ),
		})
	}

	t, err := abi.NewType("tuple", "", components)
	if err != nil {
		return nil, err
	}
	return abi.Arguments{{Name: "value", Type: t}}, nil
}

// Decode strips the selector, applies the tuple head if configured and
// returns the value at s.Field.
func (s *Stage) Decode(input []byte) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &StageError{Stage: s.Name, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	if len(input) < s.SelectorLen {
		return nil, &StageError{Stage: s.Name, Err: ErrTooShort}
	}

	data := input[s.SelectorLen:]
	if s.TupleHead {
		data = append(append(make([]byte, 0, len(tupleHead)+len(data)), tupleHead...), data...)
	}

	decoded, err := s.args.Unpack(data)
	if err != nil {
		return nil, &StageError{Stage: s.Name, Err: err}
	}
	if len(decoded) != 1 {
		return nil, &StageError{Stage: s.Name, Err: fmt.Errorf("expected 1 decoded value, got %d", len(decoded))}
	}

	if !strings.HasPrefix(s.Signature, "(") {
		if s.Field != 0 {
			return nil, &StageError{Stage: s.Name, Err: fmt.Errorf("field %d out of range", s.Field)}
		}
		return decoded[0], nil
	}

	tuple := reflect.ValueOf(decoded[0])
	if tuple.Kind() != reflect.Struct || s.Field >= tuple.NumField() {
		return nil, &StageError{Stage: s.Name, Err: fmt.Errorf("field %d out of range", s.Field)}
	}

	return tuple.Field(s.Field).Interface(), nil
}
