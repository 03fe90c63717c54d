package device

import (
	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

// The per-role device tables. Identifiers are part of the wire contract:
// the host addresses devices by these exact keys, so changing them here
// requires the same change on the surface side.

type outputDef struct {
	id      string
	channel int
}

type inputDef struct {
	id       string
	writable bool
	absent   errcode.Code
	uninit   errcode.Code
}

var outputTables = map[identity.Role][]outputDef{
	// Main body: four horizontal and four vertical thrusters.
	identity.RoleThruster: {
		{id: "Thr_FP", channel: 2},
		{id: "Thr_FS", channel: 3},
		{id: "Thr_AP", channel: 4},
		{id: "Thr_AS", channel: 5},
		{id: "Thr_TFP", channel: 6},
		{id: "Thr_TFS", channel: 7},
		{id: "Thr_TAP", channel: 8},
		{id: "Thr_TAS", channel: 9},
	},
	// Manipulator arm: rotation, gripper, forearm.
	identity.RoleArm: {
		{id: "Mot_R", channel: 5},
		{id: "Mot_G", channel: 6},
		{id: "Mot_F", channel: 7},
	},
	// Micro-ROV: a single tether thruster.
	identity.RoleMicro: {
		{id: "Thr_M", channel: 3},
	},
}

var inputTables = map[identity.Role][]inputDef{
	identity.RoleSensor: {
		{id: "Sen_IMU_X", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_Y", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_Z", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_Temp", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_AccX", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_AccY", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_IMU_AccZ", absent: errcode.IMUAbsent, uninit: errcode.IMUUninitialized},
		{id: "Sen_Dep_Pres", absent: errcode.DepthAbsent, uninit: errcode.DepthUninitialized},
		{id: "Sen_Dep_Temp", absent: errcode.DepthAbsent, uninit: errcode.DepthUninitialized},
		{id: "Sen_Dep_Dep", absent: errcode.DepthAbsent, uninit: errcode.DepthUninitialized},
		{id: "Sen_Temp"},
		{id: "Sen_PH"},
		{id: "Sen_Sonar_Dist", absent: errcode.SonarAbsent, uninit: errcode.SonarUninitialized},
		{id: "Sen_Sonar_Conf", absent: errcode.SonarAbsent, uninit: errcode.SonarUninitialized},
		{id: "Sen_Sonar_Start", writable: true, absent: errcode.SonarAbsent, uninit: errcode.SonarUninitialized},
		{id: "Sen_Sonar_Len", writable: true, absent: errcode.SonarAbsent, uninit: errcode.SonarUninitialized},
	},
}
