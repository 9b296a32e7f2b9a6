package provider

// AccessKind distinguishes reads from writes for an AccessChecker
type AccessKind uint8

const (
	AccessRead AccessKind = iota
	AccessWrite
)

var accessKindMapping = map[AccessKind]string{
	AccessRead:  "Read",
	AccessWrite: "Write",
}

func (k AccessKind) String() string {
	return accessKindMapping[k]
}

// AccessChecker authorizes individual accesses to a Guarded provider
type AccessChecker interface {
	CheckAccess(kind AccessKind, offset, length int) error
}

// AccessCheckerFunc adapts a function to AccessChecker
type AccessCheckerFunc func(kind AccessKind, offset, length int) error

func (f AccessCheckerFunc) CheckAccess(kind AccessKind, offset, length int) error {
	return f(kind, offset, length)
}

// Guarded passes every read and write through an AccessChecker before it reaches the inner
// provider
type Guarded struct {
	Provider
	checker AccessChecker
}

func NewGuarded(inner Provider, checker AccessChecker) *Guarded {
	return &Guarded{Provider: inner, checker: checker}
}

func (g *Guarded) BorrowSlice(offset, length int) ([]byte, error) {
	err := g.checker.CheckAccess(AccessRead, offset, length)
	if err != nil {
		return nil, err
	}
	return g.Provider.BorrowSlice(offset, length)
}

func (g *Guarded) BorrowSliceMut(offset, length int) ([]byte, error) {
	err := g.checker.CheckAccess(AccessWrite, offset, length)
	if err != nil {
		return nil, err
	}
	return g.Provider.BorrowSliceMut(offset, length)
}

func (g *Guarded) WriteData(offset int, data []byte) error {
	err := g.checker.CheckAccess(AccessWrite, offset, len(data))
	if err != nil {
		return err
	}
	return g.Provider.WriteData(offset, data)
}

func (g *Guarded) ReadData(offset int, dst []byte) error {
	err := g.checker.CheckAccess(AccessRead, offset, len(dst))
	if err != nil {
		return err
	}
	return g.Provider.ReadData(offset, dst)
}

func (g *Guarded) CopyWithin(src, dst, length int) error {
	err := g.checker.CheckAccess(AccessRead, src, length)
	if err != nil {
		return err
	}

	err = g.checker.CheckAccess(AccessWrite, dst, length)
	if err != nil {
		return err
	}

	return g.Provider.CopyWithin(src, dst, length)
}
