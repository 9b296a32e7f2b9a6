package bounded

import (
	"iter"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/wrtgo/foundation/memutils"
	"github.com/wrtgo/foundation/provider"
	"github.com/wrtgo/foundation/verification"
)

// String is UTF-8 text with a fixed capacity in bytes. Its content is always valid UTF-8:
// appends of invalid bytes and truncation inside a rune are refused.
type String struct {
	bytes  slots
	length int
}

// StringBytes returns the number of provider bytes a String of capacity bytes needs
func StringBytes(capacity int) int {
	return capacity
}

// NewString creates an empty string of at most capacity bytes stored in p
func NewString(p provider.Provider, capacity int) (*String, error) {
	bytes, err := newSlots(p, capacity, 1)
	if err != nil {
		return nil, err
	}

	return &String{bytes: bytes}, nil
}

// NewStringFrom creates a string of at most capacity bytes holding text
func NewStringFrom(p provider.Provider, capacity int, text string) (*String, error) {
	s, err := NewString(p, capacity)
	if err != nil {
		return nil, err
	}

	err = s.Append(text)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the length in bytes
func (s *String) Len() int { return s.length }

// Capacity returns the maximum length in bytes
func (s *String) Capacity() int { return s.bytes.capacity }

func (s *String) IsEmpty() bool { return s.length == 0 }

func (s *String) IsFull() bool { return s.length == s.bytes.capacity }

func (s *String) Provider() provider.Provider { return s.bytes.provider }

// Append adds text to the end. Nothing is written if text does not fit.
func (s *String) Append(text string) error {
	if !utf8.ValidString(text) {
		return errors.WithStack(ErrInvalidUTF8)
	}
	return s.append([]byte(text))
}

// AppendBytes adds UTF-8 encoded data to the end
func (s *String) AppendBytes(data []byte) error {
	if !utf8.Valid(data) {
		return errors.WithStack(ErrInvalidUTF8)
	}
	return s.append(data)
}

func (s *String) AppendRune(r rune) error {
	if !utf8.ValidRune(r) {
		return errors.Wrapf(ErrInvalidUTF8, "rune %U", r)
	}
	return s.append(utf8.AppendRune(nil, r))
}

func (s *String) append(data []byte) error {
	if len(data) > s.bytes.capacity-s.length {
		return capacityError(s.bytes.capacity)
	}

	err := s.bytes.provider.WriteData(s.length, data)
	if err != nil {
		return err
	}

	s.length += len(data)
	return nil
}

// Bytes returns a copy of the content
func (s *String) Bytes() ([]byte, error) {
	out := make([]byte, s.length)
	if s.length == 0 {
		return out, nil
	}

	err := s.bytes.provider.VerifyAccess(0, s.length, verification.ImportanceMedium)
	if err != nil {
		return nil, err
	}

	err = s.bytes.provider.ReadData(0, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// String returns the content
func (s *String) String() (string, error) {
	data, err := s.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Equal reports whether the content is text
func (s *String) Equal(text string) (bool, error) {
	if len(text) != s.length {
		return false, nil
	}

	content, err := s.String()
	if err != nil {
		return false, err
	}
	return content == text, nil
}

func (s *String) RuneCount() (int, error) {
	data, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	return utf8.RuneCount(data), nil
}

// Truncate shortens the string to length bytes, which must fall on a rune boundary
func (s *String) Truncate(length int) error {
	if length < 0 || length > s.length {
		return errors.WithStack(&memutils.BoundsError{Offset: 0, Length: length, Size: s.length})
	}

	if length == s.length {
		return nil
	}

	record, err := s.bytes.load(length)
	if err != nil {
		return err
	}
	if !utf8.RuneStart(record[0]) {
		return errors.Wrapf(ErrInvalidUTF8, "offset %d is inside a rune", length)
	}

	err = s.bytes.scrubRange(length, s.length-length)
	if err != nil {
		return err
	}

	s.length = length
	return nil
}

func (s *String) Clear() error {
	err := s.bytes.scrubRange(0, s.length)
	if err != nil {
		return err
	}

	s.length = 0
	return nil
}

// Runes iterates over the byte offset and value of every rune
func (s *String) Runes() iter.Seq2[int, rune] {
	return func(yield func(int, rune) bool) {
		content, err := s.String()
		if err != nil {
			return
		}

		for offset, r := range content {
			if !yield(offset, r) {
				return
			}
		}
	}
}

func (s *String) Checksum() (verification.Checksum, error) {
	data, err := s.Bytes()
	if err != nil {
		return verification.Checksum{}, err
	}
	return verification.Compute(data), nil
}

func (s *String) Release() error {
	s.length = 0
	return s.bytes.release()
}
