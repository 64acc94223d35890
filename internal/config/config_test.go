package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/sqparse/internal/config"
	"github.com/ossyrian/sqparse/internal/sqpack"
)

func TestConfig_Descriptors(t *testing.T) {
	cfg := &config.Config{Offsets: []string{"0x800", "4096", "E39B7999/A41D4329@0x1000"}}

	descs, err := cfg.Descriptors()
	require.NoError(t, err)
	assert.Equal(t, []sqpack.OffsetDescriptor{
		{DataOffset: 0x800},
		{DataOffset: 4096},
		{DataOffset: 0x1000, FolderHash: 0xE39B7999, FileHash: 0xA41D4329},
	}, descs)

	_, err = (&config.Config{}).Descriptors()
	assert.Error(t, err)

	_, err = (&config.Config{Offsets: []string{"0x800", "nope"}}).Descriptors()
	assert.ErrorContains(t, err, "invalid data offset")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{name: "valid", cfg: config.Config{InputFile: "0a0000.win32.dat0", Offsets: []string{"0x800"}, Workers: 4, CacheSize: 64}},
		{name: "missing input", cfg: config.Config{Offsets: []string{"0x800"}}, wantErr: "input file is required"},
		{name: "missing offsets", cfg: config.Config{InputFile: "x"}, wantErr: "at least one offset is required"},
		{name: "negative workers", cfg: config.Config{InputFile: "x", Offsets: []string{"0"}, Workers: -1}, wantErr: "workers"},
		{name: "negative cache", cfg: config.Config{InputFile: "x", Offsets: []string{"0"}, CacheSize: -1}, wantErr: "cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
