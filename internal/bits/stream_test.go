package bits

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestStreamReader_ReadBits(t *testing.T) {
	s := NewStreamReader(bytes.NewReader([]byte{0xFF, 0x0F, 0xAB, 0xCD}))

	got, err := s.ReadBits(12)
	if err != nil || got != 0xFF0 {
		t.Fatalf("ReadBits(12) = 0x%X, %v; want 0xFF0, nil", got, err)
	}
	got, err = s.ReadBits(20)
	if err != nil || got != 0xFABCD {
		t.Fatalf("ReadBits(20) = 0x%X, %v; want 0xFABCD, nil", got, err)
	}
	if s.BitsRead() != 32 {
		t.Errorf("BitsRead = %d, want 32", s.BitsRead())
	}
}

func TestStreamReader_Underflow(t *testing.T) {
	s := NewStreamReader(bytes.NewReader([]byte{0x12}))

	if _, err := s.ReadBits(16); !errors.Is(err, ErrUnderflow) {
		t.Errorf("ReadBits(16) on 1 byte: err = %v, want ErrUnderflow", err)
	}
}

func TestStreamReader_AlignAndEOF(t *testing.T) {
	s := NewStreamReader(bytes.NewReader([]byte{0xF0, 0x3C}))

	_, _ = s.ReadBits(3)
	if skipped := s.Align(); skipped != 5 {
		t.Errorf("Align() = %d, want 5", skipped)
	}

	eof, err := s.AtEOF()
	if err != nil || eof {
		t.Fatalf("AtEOF() = %v, %v; want false, nil", eof, err)
	}

	got, _ := s.ReadBits(8)
	if got != 0x3C {
		t.Errorf("ReadBits(8) = 0x%X, want 0x3C", got)
	}

	eof, err = s.AtEOF()
	if err != nil || !eof {
		t.Errorf("AtEOF() at end = %v, %v; want true, nil", eof, err)
	}
}

func TestStreamReader_SharesBufferedReader(t *testing.T) {
	br := bufio.NewReader(bytes.NewReader([]byte{'h', 'd', 'r', 0x80}))

	hdr := make([]byte, 3)
	if _, err := br.Read(hdr); err != nil {
		t.Fatalf("Read header error = %v", err)
	}

	s := NewStreamReader(br)
	bit, err := s.ReadBits(1)
	if err != nil || bit != 1 {
		t.Errorf("ReadBits(1) after header = %d, %v; want 1, nil", bit, err)
	}
}
