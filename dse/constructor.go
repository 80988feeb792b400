package dse

// maxConstructors and maxConstructorArgs mirror spec.md's stated limits (15
// constructors, 5 arguments each).
const (
	maxConstructors    = 15
	maxConstructorArgs = 5
)

// Constructor is a named subroutine bounded by START_CONSTRUCTOR/
// END_CONSTRUCTOR in the command stream. BodyStart/BodyEnd are word indices
// into the program buffer (the command word immediately after
// START_CONSTRUCTOR, and the word just past END_CONSTRUCTOR) so CONSTRUCT can
// jump straight to the body without re-scanning from the top.
type Constructor struct {
	ID            uint8
	ArgCount      uint8
	ReadOnlyMask  uint8 // bit i set => argument position i is read-only
	BodyStart     int
	BodyEnd       int
}

// ConstructorTable is the fixed table of constructor definitions, addressed
// by id from START_CONSTRUCTOR and CONSTRUCT command words.
type ConstructorTable struct {
	slots [maxConstructors]*Constructor
}

func (ct *ConstructorTable) Define(c *Constructor) error {
	if int(c.ID) >= maxConstructors {
		return errConstructorRange
	}
	if c.ArgCount > maxConstructorArgs {
		return errConstructorArgs
	}
	ct.slots[c.ID] = c
	return nil
}

func (ct *ConstructorTable) Get(id uint8) (*Constructor, error) {
	if int(id) >= maxConstructors {
		return nil, errConstructorRange
	}
	c := ct.slots[id]
	if c == nil {
		return nil, errConstructorMissing
	}
	return c, nil
}

// argBinding records what a CONSTRUCT argument swap did to a struct-table
// slot, so unbindArgs can put things back exactly as they were.
type argBinding struct {
	swapped   bool   // true: slot i and slot s were swapped and must be swapped back
	i, s      uint8
	previousI *Struct // false case only: slot i's occupant before the copy-in
}

// bindArgs implements CONSTRUCT's argument passing convention exactly as
// spec.md §4.3 describes it: "for each arg index i passing struct S: swap
// struct-table slots i and S; if the read-only bit for position i is set,
// first copy slot S so the constructor sees a mutable-but-isolated copy."
//
// Read-only args therefore never touch slot S at all (only slot i is
// overwritten, with a copy); non-read-only args perform a true swap that is
// undone by swapping again in unbindArgs.
func bindArgs(st *StructTable, ctor *Constructor, argStructIDs []uint8) ([]argBinding, error) {
	if len(argStructIDs) != int(ctor.ArgCount) {
		return nil, errConstructorArgs
	}

	bindings := make([]argBinding, 0, ctor.ArgCount)
	for i := uint8(0); i < ctor.ArgCount; i++ {
		s := argStructIDs[i]
		source, err := st.Get(s)
		if err != nil {
			return nil, err
		}

		readOnly := ctor.ReadOnlyMask&(1<<i) != 0
		if readOnly {
			previousI, _ := st.Get(i) // may be empty; ignore error
			if err := st.Put(i, copyOf(source)); err != nil {
				return nil, err
			}
			bindings = append(bindings, argBinding{swapped: false, i: i, s: s, previousI: previousI})
			continue
		}

		atI, _ := st.Get(i)
		if err := st.Put(i, source); err != nil {
			return nil, err
		}
		if err := st.Put(s, atI); err != nil {
			return nil, err
		}
		bindings = append(bindings, argBinding{swapped: true, i: i, s: s})
	}
	return bindings, nil
}

// unbindArgs undoes bindArgs in reverse order, discarding the read-only
// copy's mutations and restoring any true swap.
func unbindArgs(st *StructTable, bindings []argBinding) {
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		if b.swapped {
			atI, _ := st.Get(b.i)
			atS, _ := st.Get(b.s)
			st.slots[b.i] = atS
			st.slots[b.s] = atI
			continue
		}
		st.slots[b.i] = b.previousI
	}
}
