package convert

import (
	"fmt"

	"tlbimp/internal/typelib"
)

// maxAliasHops bounds alias-of-alias chains. Authoring tools cannot
// express cycles but the in-memory model can.
const maxAliasHops = 8

// convertAlias resolves a typedef use. Aliases of named types dissolve
// into the target; aliases of builtins convert as the builtin and
// advertise the alias name so consumers can recover the source spelling.
func (cx *Context) convertAlias(ti typelib.TypeInfo, attr typelib.TypeAttr, native int, req convReq) (converted, error) {
	if req.aliasHops >= maxAliasHops {
		return converted{}, fmt.Errorf("alias chain too deep at %s", ti.Name())
	}
	if attr.Alias == nil {
		return converted{}, fmt.Errorf("alias %s has no target descriptor", ti.Name())
	}
	leaf, depth, _, err := attr.Alias.Indirection()
	if err != nil {
		return converted{}, err
	}

	inner := req
	inner.declaring = ti
	inner.aliasHops++

	if leaf.VT == typelib.VTUserDefined {
		target, err := ti.RefTypeInfo(leaf.Ref)
		if err != nil {
			return converted{}, err
		}
		return cx.convertNamed(target, native+depth, inner)
	}

	c, err := cx.convertLeaf(leaf, native+depth, inner)
	if err != nil {
		return converted{}, err
	}
	if c.alias == "" {
		if ns, nerr := cx.Names.Namespace(ti.Lib()); nerr == nil {
			name := ti.Name()
			if o, ok := typelib.ManagedNameOverride(ti); ok {
				name = o
			}
			c.alias = ns + "." + name
		}
	}
	return c, nil
}
