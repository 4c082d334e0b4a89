package convert

import (
	"fmt"
	"sort"

	"tlbimp/internal/diag"
	"tlbimp/internal/typelib"
)

// memberKind classifies a planned member.
type memberKind uint8

const (
	mkMethod memberKind = iota
	mkGet
	mkPut
	mkPutRef
	mkVarGet
	mkVarSet
	mkGap
)

// rootKind says which well-known interface terminates the inheritance
// chain; it decides the number of base v-table slots.
type rootKind uint8

const (
	rootIUnknown rootKind = iota
	rootIDispatch
)

func (r rootKind) baseSlots() int {
	if r == rootIDispatch {
		return 7
	}
	return 3
}

// plannedMember is one managed member the interface will carry. The
// function or variable it came from stays addressable through declaring
// plus the index, so emission can resolve RefIDs against the right level
// of the inheritance chain.
type plannedMember struct {
	kind      memberKind
	name      string
	base      string
	dispid    int32
	slot      int
	gapCount  int
	declaring typelib.TypeInfo
	fnIndex   int
	varIndex  int
	desc      typelib.FuncDesc
	vdesc     typelib.VarDesc
	enum      bool
}

// plannedProperty groups the accessors that share a dispatch id.
type plannedProperty struct {
	base    string
	dispid  int32
	members []int // indexes into memberPlan.members
}

// memberPlan is the complete description of an interface's managed
// surface, computed at define time and emitted at create time.
type memberPlan struct {
	dispatch  bool
	root      rootKind
	baseSlots int
	members   []plannedMember
	props     []plannedProperty
	newEnum   bool
}

// errBadChain marks an inheritance walk that cannot reach IUnknown.
var errBadChain = fmt.Errorf("interface does not derive from IUnknown")

// interfaceChain walks the single-inheritance chain from ti to a
// well-known root, parent-first. The terminating IUnknown or IDispatch
// entry is elided.
func interfaceChain(ti typelib.TypeInfo) ([]typelib.TypeInfo, rootKind, error) {
	var chain []typelib.TypeInfo
	cur := ti
	for steps := 0; ; steps++ {
		if steps > 64 {
			return nil, 0, fmt.Errorf("inheritance chain too deep at %s", ti.Name())
		}
		attr, err := cur.Attr()
		if err != nil {
			return nil, 0, err
		}
		switch attr.GUID {
		case typelib.IIDIUnknown:
			reverse(chain)
			return chain, rootIUnknown, nil
		case typelib.IIDIDispatch:
			reverse(chain)
			return chain, rootIDispatch, nil
		}
		if attr.Impls == 0 {
			return nil, 0, fmt.Errorf("%s: %w", cur.Name(), errBadChain)
		}
		chain = append(chain, cur)
		base, _, err := cur.ImplType(0)
		if err != nil {
			return nil, 0, err
		}
		cur = base
	}
}

func reverse(s []typelib.TypeInfo) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// customFlag reads a boolean-ish custom data value: present and not
// explicitly false.
func customFlag(v typelib.Variant, ok bool) bool {
	if !ok {
		return false
	}
	return v.VT != typelib.VTBool || v.Bool
}

// planMembers computes the managed member layout of c's v-table face.
func planMembers(cx *Context, c *converter) (*memberPlan, error) {
	face := c.face
	faceAttr, err := face.Attr()
	if err != nil {
		return nil, err
	}

	chain, root, err := interfaceChain(face)
	if err != nil {
		return nil, err
	}
	plan := &memberPlan{
		dispatch:  faceAttr.Kind == typelib.TKindDispatch,
		root:      root,
		baseSlots: root.baseSlots(),
	}

	origin := diag.Type(cx.Lib.Name(), c.name)
	placed := make(map[string]bool)
	seenSlots := make(map[int]bool)
	prevSlot := -1

	for _, level := range chain {
		attr, err := level.Attr()
		if err != nil {
			return nil, err
		}

		// accessor roles per base name, for the let_ naming rule
		kinds := make(map[string]typelib.InvokeKind)
		descs := make([]typelib.FuncDesc, attr.Funcs)
		for i := 0; i < attr.Funcs; i++ {
			fd, err := level.FuncDesc(i)
			if err != nil {
				return nil, err
			}
			descs[i] = fd
			if fd.Flags&typelib.FuncFlagRestricted != 0 {
				continue
			}
			base := memberName(level, i, fd)
			kinds[base] |= funcInvoke(level, i, fd)
		}

		for i := 0; i < attr.Funcs; i++ {
			fd := descs[i]
			if fd.Flags&typelib.FuncFlagRestricted != 0 {
				continue
			}
			m := plannedMember{
				declaring: level,
				fnIndex:   i,
				varIndex:  -1,
				desc:      fd,
				slot:      -1,
				dispid:    funcDispID(level, i, fd),
				base:      memberName(level, i, fd),
			}

			invoke := funcInvoke(level, i, fd)
			checkParamFlagCounts(cx, level, fd, origin.In(m.base))

			if !plan.dispatch {
				slot, err := vtableSlot(cx, fd, plan.baseSlots)
				if err != nil || slot < prevSlot || seenSlots[slot] {
					diag.ReportWarning(cx.Reporter, diag.MemBadVTable, origin.In(m.base),
						fmt.Sprintf("virtual table offset %d of %s is invalid", fd.VTableOffset, m.base)).Emit()
					return nil, fmt.Errorf("bad v-table layout at %s", m.base)
				}
				seenSlots[slot] = true
				prevSlot = slot
				m.slot = slot
			}

			if cx.qualifiesNewEnum(level, i, fd, invoke, root, origin.In(m.base)) {
				if plan.newEnum {
					diag.ReportWarning(cx.Reporter, diag.MemMultiNewEnum, origin.In(m.base),
						"more than one member qualifies as the enumerator, keeping the first").Emit()
				} else {
					plan.newEnum = true
					m.enum = true
					m.kind = mkMethod
					m.name = "GetEnumerator"
					placed[m.name] = true
					plan.members = append(plan.members, m)
					continue
				}
			}

			m.kind, m.name = accessorNaming(invoke, m.base, kinds[m.base])
			if m.kind != mkMethod && placed[m.name] {
				diag.ReportWarning(cx.Reporter, diag.MemPropertyDemoted, origin.In(m.base),
					fmt.Sprintf("accessor name %s is taken, %s becomes a plain method", m.name, m.base)).Emit()
				m.kind = mkMethod
				m.name = m.base
			}
			placed[m.name] = true
			plan.members = append(plan.members, m)
		}

		for i := 0; i < attr.Vars; i++ {
			vd, err := level.VarDesc(i)
			if err != nil {
				return nil, err
			}
			if vd.Kind == typelib.VarConst || vd.Flags&typelib.VarFlagRestricted != 0 {
				continue
			}
			plan.addVarMembers(cx, level, i, vd, placed, origin)
		}
	}

	if !plan.dispatch {
		sort.SliceStable(plan.members, func(i, j int) bool {
			return plan.members[i].slot < plan.members[j].slot
		})
		plan.members = fillGaps(plan.members)
	}
	plan.groupProperties()
	return plan, nil
}

// addVarMembers synthesizes property accessors for a dispatch variable.
func (p *memberPlan) addVarMembers(cx *Context, level typelib.TypeInfo, i int, vd typelib.VarDesc, placed map[string]bool, origin diag.Origin) {
	base := varName(level, i, vd)
	dispid := varDispID(level, i, vd)

	if vd.MemberID == typelib.DispIDNewEnum && !p.newEnum && varShapeEnumerable(level, vd) {
		p.newEnum = true
		p.members = append(p.members, plannedMember{
			kind: mkMethod, name: "GetEnumerator", base: base, dispid: dispid,
			slot: -1, declaring: level, fnIndex: -1, varIndex: i, vdesc: vd, enum: true,
		})
		placed["GetEnumerator"] = true
		return
	}

	get := plannedMember{
		kind: mkVarGet, name: "get_" + base, base: base, dispid: dispid,
		slot: -1, declaring: level, fnIndex: -1, varIndex: i, vdesc: vd,
	}
	if placed[get.name] {
		diag.ReportWarning(cx.Reporter, diag.MemPropertyDemoted, origin.In(base),
			fmt.Sprintf("accessor name %s is taken, variable %s is dropped", get.name, base)).Emit()
		return
	}
	placed[get.name] = true
	p.members = append(p.members, get)

	if vd.ReadOnly() {
		return
	}
	set := get
	set.kind = mkVarSet
	set.name = "set_" + base
	if placed[set.name] {
		diag.ReportWarning(cx.Reporter, diag.MemPropertyDemoted, origin.In(base),
			fmt.Sprintf("accessor name %s is taken, %s becomes read-only", set.name, base)).Emit()
		return
	}
	placed[set.name] = true
	p.members = append(p.members, set)
}

// groupProperties collects accessors sharing a dispatch id.
func (p *memberPlan) groupProperties() {
	order := make([]int32, 0, 4)
	groups := make(map[int32][]int)
	for i, m := range p.members {
		switch m.kind {
		case mkGet, mkPut, mkPutRef, mkVarGet, mkVarSet:
			if _, ok := groups[m.dispid]; !ok {
				order = append(order, m.dispid)
			}
			groups[m.dispid] = append(groups[m.dispid], i)
		}
	}
	for _, id := range order {
		idx := groups[id]
		p.props = append(p.props, plannedProperty{
			base:    p.members[idx[0]].base,
			dispid:  id,
			members: idx,
		})
	}
}

// fillGaps inserts placeholder members for v-table slots no convertible
// member occupies.
func fillGaps(members []plannedMember) []plannedMember {
	out := make([]plannedMember, 0, len(members))
	expected := 0
	for _, m := range members {
		if m.slot > expected {
			count := m.slot - expected
			name := fmt.Sprintf("_VtblGap%d", expected)
			if count > 1 {
				name = fmt.Sprintf("_VtblGap%d_%d", expected, count)
			}
			out = append(out, plannedMember{
				kind: mkGap, name: name, slot: expected, gapCount: count,
				fnIndex: -1, varIndex: -1,
			})
		}
		expected = m.slot + 1
		out = append(out, m)
	}
	return out
}

func vtableSlot(cx *Context, fd typelib.FuncDesc, baseSlots int) (int, error) {
	if fd.VTableOffset%cx.ptrSize != 0 {
		return 0, fmt.Errorf("misaligned v-table offset %d", fd.VTableOffset)
	}
	slot := fd.VTableOffset/cx.ptrSize - baseSlots
	if slot < 0 {
		return 0, fmt.Errorf("v-table offset %d underflows the base interface", fd.VTableOffset)
	}
	return slot, nil
}

// accessorNaming applies the naming rules for one invoke kind. let_ is
// taken by propput only when a propputref shares the base name.
func accessorNaming(invoke typelib.InvokeKind, base string, seen typelib.InvokeKind) (memberKind, string) {
	switch invoke {
	case typelib.InvokePropGet:
		return mkGet, "get_" + base
	case typelib.InvokePropPut:
		if seen&typelib.InvokePropPutRef != 0 {
			return mkPut, "let_" + base
		}
		return mkPut, "set_" + base
	case typelib.InvokePropPutRef:
		return mkPutRef, "set_" + base
	}
	return mkMethod, base
}

// funcInvoke resolves the effective invoke kind, honoring the custom data
// that forces accessor roles onto plain functions.
func funcInvoke(level typelib.TypeInfo, i int, fd typelib.FuncDesc) typelib.InvokeKind {
	if customFlag(level.FuncCustomData(i, typelib.CDPropGet)) {
		return typelib.InvokePropGet
	}
	if customFlag(level.FuncCustomData(i, typelib.CDPropPut)) {
		return typelib.InvokePropPut
	}
	if customFlag(level.FuncCustomData(i, typelib.CDFunction2Getter)) {
		return typelib.InvokePropGet
	}
	return fd.Invoke
}

func funcDispID(level typelib.TypeInfo, i int, fd typelib.FuncDesc) int32 {
	if v, ok := level.FuncCustomData(i, typelib.CDDispIDOverride); ok {
		return int32(v.Int())
	}
	return int32(fd.MemberID)
}

func varDispID(level typelib.TypeInfo, i int, vd typelib.VarDesc) int32 {
	if v, ok := level.VarCustomData(i, typelib.CDDispIDOverride); ok {
		return int32(v.Int())
	}
	return int32(vd.MemberID)
}

// memberName resolves the managed base name of a function member.
func memberName(level typelib.TypeInfo, i int, fd typelib.FuncDesc) string {
	if v, ok := level.FuncCustomData(i, typelib.CDManagedName); ok && v.IsString() && v.Str != "" {
		return v.Str
	}
	ns := level.Names(fd.MemberID, 1)
	if len(ns) == 0 || ns[0] == "" {
		return fmt.Sprintf("member_%d", fd.MemberID)
	}
	return ns[0]
}

func varName(level typelib.TypeInfo, i int, vd typelib.VarDesc) string {
	if v, ok := level.VarCustomData(i, typelib.CDManagedName); ok && v.IsString() && v.Str != "" {
		return v.Str
	}
	ns := level.Names(vd.MemberID, 1)
	if len(ns) == 0 || ns[0] == "" {
		return fmt.Sprintf("member_%d", vd.MemberID)
	}
	return ns[0]
}

// checkParamFlagCounts emits the once-per-function warnings about
// over-annotated parameter lists.
func checkParamFlagCounts(cx *Context, level typelib.TypeInfo, fd typelib.FuncDesc, origin diag.Origin) {
	lcids, retvals := 0, 0
	for _, p := range fd.Params {
		if p.Flags&typelib.ParamFlagLCID != 0 {
			lcids++
		}
		if p.Flags.Retval() {
			retvals++
		}
	}
	if lcids > 1 {
		diag.ReportWarning(cx.Reporter, diag.MemMultipleLcids, origin,
			"more than one parameter is marked lcid, using the first").Emit()
	}
	if retvals > 1 {
		diag.ReportWarning(cx.Reporter, diag.MemAmbiguousReturn, origin,
			"more than one parameter is marked retval, using the first").Emit()
	}
}

// qualifiesNewEnum decides whether a function member is the enumerator
// accessor: the well-known dispatch id or the forcing custom data, an
// accessor-compatible invoke kind, and an enumerator-shaped result.
func (cx *Context) qualifiesNewEnum(level typelib.TypeInfo, i int, fd typelib.FuncDesc, invoke typelib.InvokeKind, root rootKind, origin diag.Origin) bool {
	forced := customFlag(level.FuncCustomData(i, typelib.CDForceIEnumerable))
	if fd.MemberID != typelib.DispIDNewEnum && !forced {
		return false
	}
	if invoke != typelib.InvokeFunc && invoke != typelib.InvokePropGet {
		return false
	}
	if forced && fd.MemberID != typelib.DispIDNewEnum && root != rootIDispatch {
		diag.ReportWarning(cx.Reporter, diag.MemIEnumOnIUnknown, origin,
			"enumerator custom data is ignored on an interface not derived from IDispatch").Emit()
		return false
	}
	return funcShapeEnumerable(level, fd)
}

// funcShapeEnumerable checks that the member yields something adaptable
// to IEnumVARIANT: the retval parameter or the return leaf is IUnknown,
// IDispatch or the IEnumVARIANT interface.
func funcShapeEnumerable(level typelib.TypeInfo, fd typelib.FuncDesc) bool {
	td := fd.Return
	for i := len(fd.Params) - 1; i >= 0; i-- {
		if fd.Params[i].Flags.Retval() {
			td = fd.Params[i].Type
			break
		}
	}
	return descEnumerable(level, td)
}

func varShapeEnumerable(level typelib.TypeInfo, vd typelib.VarDesc) bool {
	return descEnumerable(level, vd.Type)
}

func descEnumerable(level typelib.TypeInfo, td typelib.TypeDesc) bool {
	leaf, _, _, err := td.Indirection()
	if err != nil {
		return false
	}
	switch leaf.VT {
	case typelib.VTUnknown, typelib.VTDispatch, typelib.VTVariant:
		return true
	case typelib.VTUserDefined:
		ti, err := level.RefTypeInfo(leaf.Ref)
		if err != nil {
			return false
		}
		attr, err := ti.Attr()
		if err != nil {
			return false
		}
		return attr.GUID == typelib.IIDIEnumVariant ||
			attr.GUID == typelib.IIDIUnknown || attr.GUID == typelib.IIDIDispatch
	}
	return false
}
