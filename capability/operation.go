package capability

import "fmt"

// OperationKind is the kind of memory operation a capability is asked to authorize
type OperationKind uint8

const (
	OperationAllocate OperationKind = iota
	OperationRead
	OperationWrite
)

var operationKindMapping = map[OperationKind]string{
	OperationAllocate: "Allocate",
	OperationRead:     "Read",
	OperationWrite:    "Write",
}

func (k OperationKind) String() string {
	name, ok := operationKindMapping[k]
	if !ok {
		return fmt.Sprintf("OperationKind(%d)", uint8(k))
	}
	return name
}

// Operation describes a memory operation. Allocate uses Size; Read and Write use Offset and
// Length.
type Operation struct {
	Kind   OperationKind
	Offset int
	Length int
	Size   int
}

// Allocate describes the allocation of size bytes
func Allocate(size int) Operation {
	return Operation{Kind: OperationAllocate, Size: size}
}

// Read describes a read of length bytes at offset
func Read(offset, length int) Operation {
	return Operation{Kind: OperationRead, Offset: offset, Length: length}
}

// Write describes a write of length bytes at offset
func Write(offset, length int) Operation {
	return Operation{Kind: OperationWrite, Offset: offset, Length: length}
}

func (o Operation) String() string {
	if o.Kind == OperationAllocate {
		return fmt.Sprintf("Allocate(%d)", o.Size)
	}
	return fmt.Sprintf("%s(%d, %d)", o.Kind, o.Offset, o.Length)
}
