package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

func TestRegistryTables(t *testing.T) {
	testCases := []struct {
		role       identity.Role
		outputs    int
		inputs     int
		hasOutputs bool
	}{
		{role: identity.RoleThruster, outputs: 8, hasOutputs: true},
		{role: identity.RoleArm, outputs: 3, hasOutputs: true},
		{role: identity.RoleMicro, outputs: 1, hasOutputs: true},
		{role: identity.RoleSensor, inputs: 16},
	}
	for _, tc := range testCases {
		t.Run(tc.role.String(), func(t *testing.T) {
			r := NewRegistry(tc.role, Noop)
			require.Len(t, r.Outputs(), tc.outputs)
			require.Len(t, r.Inputs(), tc.inputs)
			require.Equal(t, tc.hasOutputs, r.HasOutputs())
			require.Equal(t, tc.role, r.Role())
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(identity.RoleThruster, Noop)
	o, ok := r.Output("Thr_FP")
	require.True(t, ok)
	require.Equal(t, "Thr_FP", o.ID)
	require.Equal(t, OutputNeutral, o.Value())

	_, ok = r.Output("Thr_M")
	require.False(t, ok)
	_, ok = r.Input("Sen_Temp")
	require.False(t, ok)
}

func TestOutputSet(t *testing.T) {
	rec := &Recorder{}
	r := NewRegistry(identity.RoleMicro, rec)
	o, _ := r.Output("Thr_M")

	require.NoError(t, o.Set(1600))
	require.Equal(t, 1600, o.Value())
	last, ok := rec.Last()
	require.True(t, ok)
	require.Equal(t, Apply{Channel: 3, Value: 1600}, last)

	// out-of-range is rejected before reaching the driver and the
	// previous value is retained
	rec.Reset()
	require.Equal(t, errcode.ValueOutOfRange, o.Set(2000))
	require.Equal(t, 1600, o.Value())
	require.Empty(t, rec.Applied)

	require.Equal(t, errcode.ValueOutOfRange, o.Set(1000))
	require.Equal(t, 1600, o.Value())

	require.NoError(t, o.ForceNeutral())
	require.Equal(t, OutputNeutral, o.Value())
}

func TestInputParams(t *testing.T) {
	r := NewRegistry(identity.RoleSensor, Noop)
	start, ok := r.Input("Sen_Sonar_Start")
	require.True(t, ok)
	require.NoError(t, start.SetParam(750))
	require.Equal(t, 750, start.Param())

	dist, ok := r.Input("Sen_Sonar_Dist")
	require.True(t, ok)
	require.Equal(t, errcode.SonarParamInvalid, dist.SetParam(1))

	// degraded state codes before the sensor reports
	require.Equal(t, errcode.SonarAbsent, dist.StateCode())
	dist.SetReading(4.2)
	require.Equal(t, errcode.OK, dist.StateCode())
	v, ok := dist.Reading()
	require.True(t, ok)
	require.Equal(t, "4.2", v)
}
