// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTypeID = "0x3775c65aabe8b79980c4933dd2f4347fa5ef03611cef64328685618aa7535794"

func resetGlobalConfig() {
	globalConfig = &Config{
		StorePath:       DefaultStorePath,
		MetricsBindAddr: "127.0.0.1",
		ProbeSize:       DefaultProbeSize,
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "das.yaml")
	err := os.WriteFile(tmpFile, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
configCellTypeId: "` + testTypeID + `"
storePath: "/var/lib/das"
metricsBindAddr: "0.0.0.0"
metricsPort: 12799
probeSize: 64
maxWitnesses: 256
tracing: true
tracingStdout: true
`
	expected := &Config{
		ConfigCellTypeID: testTypeID,
		StorePath:        "/var/lib/das",
		MetricsBindAddr:  "0.0.0.0",
		MetricsPort:      12799,
		ProbeSize:        64,
		MaxWitnesses:     256,
		Tracing:          true,
		TracingStdout:    true,
	}

	actual, err := LoadConfig(writeConfig(t, yamlContent))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProbeSize, cfg.ProbeSize)
	assert.Equal(t, DefaultStorePath, cfg.StorePath)
	assert.Empty(t, cfg.ConfigCellTypeID)
	assert.Same(t, cfg, GetConfig())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("DAS_PROBE_SIZE", "32")
	t.Setenv("DAS_CONFIG_CELL_TYPE_ID", testTypeID)

	cfg, err := LoadConfig(writeConfig(t, "probeSize: 128\n"))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.ProbeSize)
	typeID, err := cfg.ConfigCellTypeIDBytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x37), typeID[0])
	assert.Equal(t, byte(0x94), typeID[31])
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "zero probe size", content: "probeSize: 0\n"},
		{name: "negative witness limit", content: "maxWitnesses: -1\n"},
		{name: "short type id", content: "configCellTypeId: \"0x0102\"\n"},
		{name: "non hex type id", content: "configCellTypeId: \"zz\"\n"},
		{name: "bad yaml", content: "probeSize: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestContext(t *testing.T) {
	cfg := &Config{ProbeSize: 1}
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
