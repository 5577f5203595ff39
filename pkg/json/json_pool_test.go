package json

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestBufferPoolReuse(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("stale contents")
	PutBuffer(buf)

	fresh := GetBuffer()
	defer PutBuffer(fresh)
	if fresh.Len() != 0 {
		t.Errorf("pooled buffer not reset: %q", fresh.String())
	}
}

func TestPutBufferDropsOversized(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer+1))
	big.WriteString("huge row")
	PutBuffer(big)

	fresh := GetBuffer()
	defer PutBuffer(fresh)
	if fresh.Len() != 0 {
		t.Errorf("pooled buffer not reset: %q", fresh.String())
	}
}

func TestAppendString(t *testing.T) {
	var buf bytes.Buffer
	if err := AppendString(&buf, `quote " and \ slash`); err != nil {
		t.Fatal(err)
	}

	var back string
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back != `quote " and \ slash` {
		t.Errorf("round trip mismatch: %q", back)
	}

	buf.Reset()
	if err := AppendString(&buf, "a<b>&c"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != `"a<b>&c"` {
		t.Errorf("HTML characters should pass through, got %s", got)
	}
}

func TestAppendStringAppends(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`{"name": `)
	if err := AppendString(&buf, "x"); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("}")
	if got := buf.String(); got != `{"name": "x"}` {
		t.Errorf("unexpected line: %s", got)
	}
}

func TestNewLineDecoderUsesNumber(t *testing.T) {
	dec := NewLineDecoder(strings.NewReader(`{"n": 9007199254740993}`))

	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		t.Fatal(err)
	}

	num, ok := out["n"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number, got %T", out["n"])
	}
	// Exact integer survives; float64 would have rounded it
	if num.String() != "9007199254740993" {
		t.Errorf("number mangled: %s", num.String())
	}
}

// Benchmark one rendered row through the pooled buffer path against a
// fresh allocation per row.
func BenchmarkPooledRowBuffer(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer()
		buf.WriteString(`{"name": `)
		if err := AppendString(buf, "some moderately long string value"); err != nil {
			b.Fatal(err)
		}
		buf.WriteString("}\n")
		PutBuffer(buf)
	}
}

func BenchmarkUnpooledRowBuffer(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		buf.WriteString(`{"name": `)
		if err := AppendString(&buf, "some moderately long string value"); err != nil {
			b.Fatal(err)
		}
		buf.WriteString("}\n")
	}
}
