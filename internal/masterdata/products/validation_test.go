package products

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

func TestValidateProduct(t *testing.T) {
	svc := NewService(nil)

	tests := []struct {
		name    string
		product Product
		wantErr error
	}{
		{"valid toner", Product{SKU: "TN-2480", Name: "Brother TN-2480", Type: TypeToner, Cost: 20, Price: 35}, nil},
		{"valid printer", Product{SKU: "HL-L2375", Name: "Brother HL-L2375DW", Type: TypePrinter, Cost: 120, Price: 180}, nil},
		{"missing sku", Product{Name: "Toner", Type: TypeToner}, shared.ErrRequiredField},
		{"missing name", Product{SKU: "TN-1", Type: TypeToner}, shared.ErrRequiredField},
		{"unknown type", Product{SKU: "TN-1", Name: "Toner", Type: "cartridge"}, shared.ErrValidation},
		{"negative price", Product{SKU: "TN-1", Name: "Toner", Type: TypeToner, Price: -1}, shared.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.validate(tc.product)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
