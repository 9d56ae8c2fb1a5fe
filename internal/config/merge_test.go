package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fapiaoflow/fapiaoflow/internal/common"
)

func TestDefaultMerge(t *testing.T) {
	cfg := DefaultMerge()

	assert.Equal(t, "3070401000000000000", cfg.TaxCode)
	assert.Equal(t, "0.06", cfg.TaxRate)
	assert.Equal(t, "餐饮服务", cfg.ItemName)
	assert.Equal(t, "1-发票基本信息", cfg.BasicSheet)
	assert.Equal(t, "2-发票明细信息", cfg.DetailSheet)
	assert.Equal(t, 4, cfg.BasicStartRow)
	assert.Equal(t, 4, cfg.DetailStartRow)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMerge_ViperOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("merge.tax_rate", "0.03")
	viper.Set("merge.item_name", "会议服务")
	viper.Set("merge.basic_start_row", 6)
	viper.Set("columns.amount", "amount")

	cfg, err := LoadMerge()
	require.NoError(t, err)

	assert.Equal(t, "0.03", cfg.TaxRate)
	assert.Equal(t, "会议服务", cfg.ItemName)
	assert.Equal(t, 6, cfg.BasicStartRow)
	assert.Equal(t, "amount", cfg.Columns.Amount)
	// Untouched values keep their defaults.
	assert.Equal(t, "3070401000000000000", cfg.TaxCode)
	assert.Equal(t, 4, cfg.DetailStartRow)
}

func TestLoadMerge_EnvFallback(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("FAPIAO_TAX_CODE", "1234567890")
	t.Setenv("FAPIAO_ITEM_NAME", "住宿服务")

	cfg, err := LoadMerge()
	require.NoError(t, err)

	assert.Equal(t, "1234567890", cfg.TaxCode)
	assert.Equal(t, "住宿服务", cfg.ItemName)
}

func TestMerge_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Merge)
		name    string
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Merge) {},
			wantErr: false,
		},
		{
			name:    "empty basic sheet",
			mutate:  func(m *Merge) { m.BasicSheet = "" },
			wantErr: true,
		},
		{
			name:    "zero start row",
			mutate:  func(m *Merge) { m.DetailStartRow = 0 },
			wantErr: true,
		},
		{
			name:    "empty item name",
			mutate:  func(m *Merge) { m.ItemName = "" },
			wantErr: true,
		},
		{
			name:    "unmapped column",
			mutate:  func(m *Merge) { m.Columns.Location = "" },
			wantErr: true,
		},
		{
			name:    "tax rate is never validated",
			mutate:  func(m *Merge) { m.TaxRate = "not a rate" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMerge()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
