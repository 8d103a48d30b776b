package datatype

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuskan/zarrcore/registry"
)

// Registry is the process-wide data-type extension registry (spec.md
// §4.6). Built-in types are added by this package's init(); applications
// register additional ones (custom fixed/variable layouts) at runtime.
var Registry = registry.New[DataType]()

func init() {
	register := func(dt DataType) {
		id := dt.Identifier()
		Registry.RegisterCompileTime(registry.Plugin[DataType]{
			Identifier: id,
			Create:     func([]byte) (DataType, error) { return dt, nil },
		})
	}
	register(Bool())
	register(Int8())
	register(Int16())
	register(Int32())
	register(Int64())
	register(Uint8())
	register(Uint16())
	register(Uint32())
	register(Uint64())
	register(Float32())
	register(Float64())
	register(Complex64())
	register(Complex128())
	register(String())
	register(Bytes())
}

// LookupName resolves a data-type name to a DataType, handling the
// parametric "rNN" and "optional<...>" forms that a plain registry.Lookup
// can't express (their configuration is encoded in the name itself, not a
// side-channel JSON object), then falling back to Registry.Lookup for
// everything else (built-ins plus anything an application registered at
// runtime).
func LookupName(name string) (DataType, error) {
	if strings.HasPrefix(name, "optional<") && strings.HasSuffix(name, ">") {
		innerName := strings.TrimSuffix(strings.TrimPrefix(name, "optional<"), ">")
		inner, err := LookupName(innerName)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}
	if len(name) > 1 && name[0] == 'r' {
		if bits, err := strconv.Atoi(name[1:]); err == nil && bits > 0 && bits%8 == 0 {
			return RawBits(bits), nil
		}
	}
	return Registry.Lookup(name, nil)
}

// ParseConfiguredName resolves either a bare string name or a
// {"name": ..., "configuration": {...}} object, matching how spec.md §4.6
// extensions may be serialised either way in metadata JSON.
func ParseConfiguredName(raw json.RawMessage) (DataType, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return LookupName(name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("datatype: invalid data_type metadata: %w", err)
	}
	return LookupName(obj.Name)
}
