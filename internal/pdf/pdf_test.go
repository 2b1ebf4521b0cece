package pdf

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 2.5, cfg.RenderScale, 1e-9)
	assert.Equal(t, 10, cfg.MaxPages)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RenderScale = 0.5
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RenderScale = 5.0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxPages = 0
	require.Error(t, cfg.Validate())
}

func TestNewProcessorRejectsBadConfig(t *testing.T) {
	_, err := NewProcessor(Config{RenderScale: 0, MaxPages: 1})
	require.Error(t, err)
}

func TestInspectRejectsGarbage(t *testing.T) {
	p, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	_, err = p.Inspect([]byte("this is not a pdf"))
	require.Error(t, err)
}

func TestInspectMinimalPDF(t *testing.T) {
	p, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	info, err := p.Inspect(minimalPDF("TOTAL $42.50"))
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)
	assert.False(t, info.Encrypted)
}

func TestTextUsable(t *testing.T) {
	p, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"too short", "TOTAL 5.00", false},
		{
			"real invoice text",
			"ACME Office Supplies Inc\nInvoice 2024-0113\nSubtotal 100.00\nTax 8.25\nTotal 108.25 due on receipt thanks",
			true,
		},
		{
			"enough words but mostly symbols",
			strings.Repeat("@# !% ^& *( )_ =+ ", 8),
			false,
		},
		{"whitespace only", "   \n\t  \n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.TextUsable(tt.text))
		})
	}
}

func TestIsEncryptionError(t *testing.T) {
	assert.False(t, isEncryptionError(nil))
	assert.True(t, isEncryptionError(fmt.Errorf("pdfcpu: file is encrypted")))
	assert.True(t, isEncryptionError(fmt.Errorf("missing password")))
	assert.False(t, isEncryptionError(fmt.Errorf("unexpected EOF")))
}

// minimalPDF builds a one-page PDF with a single text object and a correct
// xref table.
func minimalPDF(text string) []byte {
	var b strings.Builder
	offsets := make([]int, 6)

	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	offsets[4] = b.Len()
	b.WriteString(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := b.Len()
	b.WriteString("xref\n0 6\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	b.WriteString(fmt.Sprintf("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset))

	return []byte(b.String())
}
