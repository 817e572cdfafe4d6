package catalog

import "testing"

func TestProduct_CombinedText(t *testing.T) {
	tests := []struct {
		name        string
		productName string
		description string
		want        string
	}{
		{"both fields", "Copper Pipe", "15mm copper pipe", "Copper Pipe 15mm copper pipe"},
		{"empty description", "Copper Pipe", "", "Copper Pipe"},
		{"empty name", "", "15mm copper pipe", "15mm copper pipe"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct(1, tt.productName, tt.description, 1.0, true)
			if got := p.CombinedText(); got != tt.want {
				t.Errorf("CombinedText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProduct_Fields(t *testing.T) {
	p := NewProduct(7, "Pipe Connector", "compression fitting", 3.75, true).WithFeatured(true)

	if p.ID() != 7 {
		t.Errorf("ID() = %d, want 7", p.ID())
	}
	if p.Name() != "Pipe Connector" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Price() != 3.75 {
		t.Errorf("Price() = %v, want 3.75", p.Price())
	}
	if !p.Featured() {
		t.Error("Featured() = false, want true")
	}
	if !p.Active() {
		t.Error("Active() = false, want true")
	}
}
