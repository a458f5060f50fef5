package wasmctx

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"installer-shell/internal/domain"
)

// readString reads a UTF-8 string from the guest module's linear memory.
func readString(mod api.Module, ptr, size uint32) (string, error) {
	b, err := readBytes(mod, ptr, size)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readBytes copies size bytes at ptr out of guest memory.
func readBytes(mod api.Module, ptr, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, fmt.Errorf("%w: guest exports no memory", domain.ErrScriptProperty)
	}
	buf, ok := mem.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("%w: memory read out of bounds at ptr=%d len=%d", domain.ErrScriptProperty, ptr, size)
	}
	out := make([]byte, size)
	copy(out, buf)
	return out, nil
}

// readPair reads the (object, member) string pair passed to most host
// functions.
func readPair(mod api.Module, stack []uint64) (string, string, error) {
	obj, err := readString(mod, uint32(stack[0]), uint32(stack[1]))
	if err != nil {
		return "", "", err
	}
	member, err := readString(mod, uint32(stack[2]), uint32(stack[3]))
	if err != nil {
		return "", "", err
	}
	return obj, member, nil
}
