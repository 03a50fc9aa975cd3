package profiling

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/maestriajurisp/leads-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes_Default(t *testing.T) {
	got, err := parseProfileTypes("  ")
	require.NoError(t, err)
	assert.Equal(t, defaultProfileTypes, got)
}

func TestParseProfileTypes_DeduplicatesAndExpandsGroups(t *testing.T) {
	got, err := parseProfileTypes("cpu, block,CPU,")
	require.NoError(t, err)

	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileBlockCount,
		pyroscope.ProfileBlockDuration,
	}, got)
}

func TestParseProfileTypes_Invalid(t *testing.T) {
	_, err := parseProfileTypes("cpu,heap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"heap"`)
}

func TestApplicationName(t *testing.T) {
	obs := config.ObservabilityConfig{
		ServiceName:      "leads-api",
		ServiceNamespace: "maestria",
		ServiceVersion:   "1.2.0",
	}

	assert.Equal(t,
		"leads-api{service_name=leads-api,namespace=maestria,environment=production,service_version=1.2.0}",
		applicationName("", obs, "production"))

	obs.ServiceInstanceID = "pod-7"
	assert.Equal(t,
		"landing{service_name=leads-api,namespace=maestria,environment=staging,service_version=1.2.0,instance=pod-7}",
		applicationName("landing", obs, "staging"))
}

func TestStart_Disabled(t *testing.T) {
	stop, err := Start(config.ProfilingConfig{Enabled: false}, config.ObservabilityConfig{}, "test")
	require.NoError(t, err)
	require.NotNil(t, stop)
	stop()
}

func TestStart_EnabledWithoutEndpoint(t *testing.T) {
	_, err := Start(config.ProfilingConfig{Enabled: true}, config.ObservabilityConfig{}, "test")
	require.Error(t, err)
}
