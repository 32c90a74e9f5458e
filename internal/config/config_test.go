package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestHexU64Unmarshal(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want uint64
	}{
		{"hex", `addr: "0x80000000"`, 0x80000000},
		{"hex upper", `addr: "0X1000"`, 0x1000},
		{"decimal", `addr: 4096`, 4096},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Addr HexU64 `yaml:"addr"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.yml), &v))
			require.Equal(t, tt.want, uint64(v.Addr))
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Equal(t, "rv64pipe", c.General.Name)
	require.EqualValues(t, 0x80000000, c.Memory.RAMBase)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	c := Default()
	c.Pipeline.BundleWidth = 99
	c.System.InitialPriv = "nonsense"
	c.Memory.Model = "bogus"
	err := c.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "bundle_width")
	require.ErrorContains(t, err, "initial_privilege")
	require.ErrorContains(t, err, "controller_model")
}
