package mark

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// Unit Tests: Constants Integrity
// -----------------------------------------------------------------------------

// TestMarks_Integrity verifies the integrity of every Mark constant:
//  1. non-empty
//  2. no leading-space padding (marks are pure data; WithSpace adds the space)
//  3. valid UTF-8
func TestMarks_Integrity(t *testing.T) {
	t.Parallel()

	allMarks := Values()
	for _, mark := range allMarks {
		mark := mark // capture range variable
		t.Run(string(mark), func(t *testing.T) {
			t.Parallel()

			assert.NotEmpty(t, mark, "Mark constant should not be empty")

			assert.False(t, strings.HasPrefix(string(mark), " "),
				"Mark constant should be pure data without leading space padding")

			assert.True(t, utf8.ValidString(string(mark)), "Mark should be a valid UTF-8 string")
		})
	}

	// Safety net: every known constant must be reachable through Values().
	expectedMarks := []Mark{New, Modified, Unavailable, BestPrice, Alert}
	assert.ElementsMatch(t, expectedMarks, Values(), "Values() slice must contain all defined constants")
}

// TestMark_Values_Immutability verifies the slice Values() returns is safe
// from external mutation.
func TestMark_Values_Immutability(t *testing.T) {
	t.Parallel()

	original := Values()
	modified := Values()

	modified[0] = "MUTATED"

	assert.NotEqual(t, original[0], modified[0], "Modification of returned slice must not affect other calls")
	assert.Equal(t, New, original[0], "Original values must remain unchanged")
}

// TestValues_Concurrency verifies Values() is safe to call from many
// goroutines at once.
func TestValues_Concurrency(t *testing.T) {
	t.Parallel()

	const (
		goroutines = 100
		iterations = 1000
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				vals := Values()
				if len(vals) == 0 {
					t.Error("Values() returned empty slice unexpectedly")
				}
			}
		}()
	}

	wg.Wait()
}

// TestMark_Parse verifies parsing a string into a Mark.
func TestMark_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantMark Mark
		wantErr  bool
	}{
		{"🆕", New, false},
		{"🔥", BestPrice, false},
		{"Invalid", "", true},
		{"", "", true},
		{" 🆕", "", true}, // leading space makes it impure, not a bare mark
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("Input_%q", tt.input), func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantMark, got)
			}
		})
	}
}

// FuzzParse verifies Parse is robust against arbitrary input: no crash or
// panic, always either a valid Mark or an error.
func FuzzParse(f *testing.F) {
	f.Add("🆕")
	f.Add("🔥")
	f.Add("InvalidString")
	f.Add("")

	f.Fuzz(func(t *testing.T, orig string) {
		mark, err := Parse(orig)

		if err == nil {
			assert.True(t, mark.IsValid(), "Parsed mark must be valid if no error returned")
			assert.Equal(t, Mark(orig), mark, "Parsed mark should match original string")
		} else {
			assert.Empty(t, mark, "Mark should be empty on error")
		}
	})
}

// -----------------------------------------------------------------------------
// Unit Tests: Methods
// -----------------------------------------------------------------------------

// TestMark_WithSpace_TableDriven verifies WithSpace's behavior:
// empty mark -> empty string (no padding); valid mark -> space + mark.
func TestMark_WithSpace_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mark Mark
		want string
	}{
		{
			name: "Standard Mark (New)",
			mark: New,
			want: " 🆕",
		},
		{
			name: "Standard Mark (BestPrice)",
			mark: BestPrice,
			want: " 🔥",
		},
		{
			name: "Empty Mark (Edge Case)",
			mark: Mark(""),
			want: "", // an empty mark must not get padding either
		},
		{
			name: "Custom Text Mark",
			mark: Mark("TEST"),
			want: " TEST",
		},
		{
			name: "Already Spaced Mark (Edge Case)",
			mark: Mark(" A"), // still gets a space added, for consistency
			want: "  A",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mark.WithSpace())
		})
	}
}

// TestMark_String_Interface verifies the fmt.Stringer implementation.
func TestMark_String_Interface(t *testing.T) {
	t.Parallel()

	var _ fmt.Stringer = New

	tests := []struct {
		name string
		mark Mark
		want string
	}{
		{"New", New, "🆕"},
		{"Modified", Modified, "🔁"},
		{"Empty", Mark(""), ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mark.String())
			assert.Equal(t, tt.want, fmt.Sprintf("%s", tt.mark))
		})
	}
}

// TestMark_IsValid verifies the IsValid method.
func TestMark_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mark Mark
		want bool
	}{
		{"Valid Mark (New)", New, true},
		{"Valid Mark (Alert)", Alert, true},
		{"Invalid Mark (Random String)", Mark("Invalid"), false},
		{"Invalid Mark (Empty)", Mark(""), false},
		{"Invalid Mark (Space + New)", Mark(" 🆕"), false}, // not pure data
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mark.IsValid(), "IsValid() check failed for %v", tt.mark)
		})
	}
}

// -----------------------------------------------------------------------------
// Benchmarks
// -----------------------------------------------------------------------------

func BenchmarkMark_WithSpace(b *testing.B) {
	m := New
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.WithSpace()
	}
}

func BenchmarkMark_String(b *testing.B) {
	m := New
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.String()
	}
}

// -----------------------------------------------------------------------------
// Documentation Examples
// -----------------------------------------------------------------------------

func ExampleMark_WithSpace() {
	fmt.Printf("Title%s\n", New.WithSpace())
	fmt.Printf("Price%s\n", BestPrice.WithSpace())

	empty := Mark("")
	fmt.Printf("Empty%s\n", empty.WithSpace())

	// Output:
	// Title 🆕
	// Price 🔥
	// Empty
}

func ExampleMark_String() {
	fmt.Println(New)
	fmt.Println(Modified.String())

	// Output:
	// 🆕
	// 🔁
}
