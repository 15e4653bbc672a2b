package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		input   string
		want    Plan
		wantErr bool
	}{
		{"monthly", PlanMonthly, false},
		{"yearly", PlanYearly, false},
		{"enterprise", PlanEnterprise, false},
		{"weekly", "", true},
		{"", "", true},
		{"Monthly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePlan(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanDevicesAllowed(t *testing.T) {
	assert.Equal(t, 1, PlanMonthly.DevicesAllowed())
	assert.Equal(t, 3, PlanYearly.DevicesAllowed())
	assert.Equal(t, 10, PlanEnterprise.DevicesAllowed())
	assert.Equal(t, 0, Plan("bogus").DevicesAllowed())
}
