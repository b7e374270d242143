package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		pct  float64
		want OrderStatus
	}{
		{"zero is pending", 0, StatusPending},
		{"low is partial", 33.3, StatusPartial},
		{"seventy is partial", 70, StatusPartial},
		{"between seventy and eighty is incomplete", 75, StatusIncomplete},
		{"eighty is incomplete", 80, StatusIncomplete},
		{"above eighty drops back to partial", 90, StatusPartial},
		{"just under full is partial", 99.99, StatusPartial},
		{"full is completed", 100, StatusCompleted},
		{"over full is completed", 150, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.pct))
		})
	}
}
