package initcode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Simulate is a minimal interpreter of exactly the opcode subset Encode
// emits (PUSH1, PUSH32, SSTORE, RETURN), used to replay mined bytecode
// against an in-memory storage map without a full EVM (spec §8 invariant 6,
// and SPEC_FULL.md's --verify supplement). It is not a general-purpose EVM:
// any other opcode byte is a decode error, since only this encoder's output
// is ever a valid input.
func Simulate(code []byte) (map[common.Hash]common.Hash, error) {
	storage := make(map[common.Hash]common.Hash)
	var stack []common.Hash

	push := func(v common.Hash) { stack = append(stack, v) }
	pop := func() (common.Hash, error) {
		if len(stack) == 0 {
			return common.Hash{}, fmt.Errorf("initcode: stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	pc := 0
	for pc < len(code) {
		op := code[pc]
		switch op {
		case opPUSH1:
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("initcode: truncated PUSH1 at %d", pc)
			}
			push(common.BytesToHash([]byte{code[pc+1]}))
			pc += 2

		case opPUSH32:
			if pc+32 >= len(code) {
				return nil, fmt.Errorf("initcode: truncated PUSH32 at %d", pc)
			}
			push(common.BytesToHash(code[pc+1 : pc+33]))
			pc += 33

		case opSSTORE:
			key, err := pop()
			if err != nil {
				return nil, fmt.Errorf("initcode: SSTORE at %d: %w", pc, err)
			}
			value, err := pop()
			if err != nil {
				return nil, fmt.Errorf("initcode: SSTORE at %d: %w", pc, err)
			}
			storage[key] = value
			pc++

		case opRETURN:
			// Two offset/length words were pushed by the tail's PUSH1s;
			// this simulator only cares that execution reaches here cleanly.
			return storage, nil

		default:
			return nil, fmt.Errorf("initcode: unsupported opcode 0x%02x at %d", op, pc)
		}
	}
	return storage, fmt.Errorf("initcode: fell off the end without RETURN")
}
