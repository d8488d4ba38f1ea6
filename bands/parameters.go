// bands/parameters.go
// Copyright(c) 2023-2025 peregrine contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bands

import (
	gomath "math"

	"github.com/peregrine-uas/peregrine/math"
	"github.com/peregrine-uas/peregrine/params"
	"github.com/peregrine-uas/peregrine/util"
)

// Parameters is the kinematic bands configuration. All quantities are
// SI: metres, metres/second, radians, seconds. The struct has value
// semantics; mutating a copy held by a bands core requires a reset,
// which MultiBands' setters take care of.
type Parameters struct {
	LookaheadTime float64

	LeftTrk  float64 // positive, left of current track
	RightTrk float64 // positive, right of current track
	MinGs    float64
	MaxGs    float64
	MinVs    float64
	MaxVs    float64
	MinAlt   float64
	MaxAlt   float64

	TrkStep float64
	GsStep  float64
	VsStep  float64
	AltStep float64

	HorizontalAccel float64
	VerticalAccel   float64
	TurnRate        float64 // exactly one of TurnRate/BankAngle is nonzero
	BankAngle       float64
	VerticalRate    float64

	RecoveryStabilityTime float64
	MinHorizontalRecovery float64
	MinVerticalRecovery   float64
	HorizontalNMAC        float64
	VerticalNMAC          float64
	CAFactor              float64 // in (0,1]

	CollisionAvoidanceBands bool
	RecoveryTrkBands        bool
	RecoveryGsBands         bool
	RecoveryVsBands         bool
	RecoveryAltBands        bool
	ConflictCriteria        bool
	RecoveryCriteria        bool

	Alertor Alertor
}

// DefaultParameters returns a configuration sized for a small UA.
func DefaultParameters() Parameters {
	return Parameters{
		LookaheadTime: 20,

		LeftTrk:  gomath.Pi,
		RightTrk: gomath.Pi,
		MinGs:    0.2,
		MaxGs:    10,
		MinVs:    -2,
		MaxVs:    2,
		MinAlt:   0,
		MaxAlt:   150,

		TrkStep: math.Radians(5),
		GsStep:  0.5,
		VsStep:  0.25,
		AltStep: 5,

		HorizontalAccel: 1,
		VerticalAccel:   1,
		TurnRate:        math.Radians(20),
		BankAngle:       0,
		VerticalRate:    2,

		RecoveryStabilityTime: 2,
		MinHorizontalRecovery: 30,
		MinVerticalRecovery:   15,
		HorizontalNMAC:        10,
		VerticalNMAC:          5,
		CAFactor:              0.2,

		CollisionAvoidanceBands: true,
		RecoveryTrkBands:        true,
		RecoveryGsBands:         true,
		RecoveryVsBands:         true,
		RecoveryAltBands:        true,
		ConflictCriteria:        true,
		RecoveryCriteria:        true,

		Alertor: DefaultAlertor(),
	}
}

// Validate accumulates configuration errors; it returns true if the
// parameter set is usable.
func (p *Parameters) Validate(e *util.ErrorLogger) bool {
	e.Push("bands parameters")
	defer e.Pop()
	n := e.Count()
	if p.LookaheadTime <= 0 {
		e.ErrorString("lookahead_time must be positive, got %g", p.LookaheadTime)
	}
	if p.LeftTrk < 0 || p.LeftTrk > gomath.Pi || p.RightTrk < 0 || p.RightTrk > gomath.Pi {
		e.ErrorString("left_trk/right_trk must be in [0,pi]")
	}
	if p.MinGs < 0 || p.MaxGs <= p.MinGs {
		e.ErrorString("ground speed range [%g,%g] is invalid", p.MinGs, p.MaxGs)
	}
	if p.MaxVs <= p.MinVs {
		e.ErrorString("vertical speed range [%g,%g] is invalid", p.MinVs, p.MaxVs)
	}
	if p.MinAlt < 0 || p.MaxAlt <= p.MinAlt {
		e.ErrorString("altitude range [%g,%g] is invalid", p.MinAlt, p.MaxAlt)
	}
	for _, s := range []struct {
		name string
		val  float64
	}{{"trk_step", p.TrkStep}, {"gs_step", p.GsStep}, {"vs_step", p.VsStep}, {"alt_step", p.AltStep}} {
		if s.val <= 0 {
			e.ErrorString("%s must be positive, got %g", s.name, s.val)
		}
	}
	if p.TurnRate != 0 && p.BankAngle != 0 {
		e.ErrorString("turn_rate and bank_angle are mutually exclusive")
	}
	if p.CAFactor <= 0 || p.CAFactor > 1 {
		e.ErrorString("ca_factor must be in (0,1], got %g", p.CAFactor)
	}
	p.Alertor.Validate(e)
	return e.Count() == n
}

// SetFromTable overrides recognized keys from a parameter table;
// unrecognized keys are ignored. Angles in the file are degrees.
func (p *Parameters) SetFromTable(t *params.Table) {
	f := func(key string, dst *float64) {
		if v, ok := t.Lookup(key); ok {
			*dst = v
		}
	}
	deg := func(key string, dst *float64) {
		if v, ok := t.Lookup(key); ok {
			*dst = math.Radians(v)
		}
	}
	b := func(key string, dst *bool) {
		if v, ok := t.Lookup(key); ok {
			*dst = v != 0
		}
	}
	f("LOOKAHEAD_TIME", &p.LookaheadTime)
	deg("LEFT_TRK", &p.LeftTrk)
	deg("RIGHT_TRK", &p.RightTrk)
	f("MIN_GS", &p.MinGs)
	f("MAX_GS", &p.MaxGs)
	f("MIN_VS", &p.MinVs)
	f("MAX_VS", &p.MaxVs)
	f("MIN_ALT", &p.MinAlt)
	f("MAX_ALT", &p.MaxAlt)
	deg("TRK_STEP", &p.TrkStep)
	f("GS_STEP", &p.GsStep)
	f("VS_STEP", &p.VsStep)
	f("ALT_STEP", &p.AltStep)
	f("HORIZONTAL_ACCEL", &p.HorizontalAccel)
	f("VERTICAL_ACCEL", &p.VerticalAccel)
	deg("TURN_RATE", &p.TurnRate)
	deg("BANK_ANGLE", &p.BankAngle)
	f("VERTICAL_RATE", &p.VerticalRate)
	f("RECOVERY_STABILITY_TIME", &p.RecoveryStabilityTime)
	f("MIN_HORIZONTAL_RECOVERY", &p.MinHorizontalRecovery)
	f("MIN_VERTICAL_RECOVERY", &p.MinVerticalRecovery)
	f("HORIZONTAL_NMAC", &p.HorizontalNMAC)
	f("VERTICAL_NMAC", &p.VerticalNMAC)
	f("CA_FACTOR", &p.CAFactor)
	b("COLLISION_AVOIDANCE_BANDS", &p.CollisionAvoidanceBands)
	b("RECOVERY_TRK_BANDS", &p.RecoveryTrkBands)
	b("RECOVERY_GS_BANDS", &p.RecoveryGsBands)
	b("RECOVERY_VS_BANDS", &p.RecoveryVsBands)
	b("RECOVERY_ALT_BANDS", &p.RecoveryAltBands)
	b("CONFLICT_CRITERIA", &p.ConflictCriteria)
	b("RECOVERY_CRITERIA", &p.RecoveryCriteria)

	if r, ok := t.Lookup("CYL_RADIUS"); ok {
		if h, ok := t.Lookup("CYL_HEIGHT"); ok {
			alert, _ := t.LookupOr("ALERT_TIME", 10)
			early, _ := t.LookupOr("EARLY_ALERT_TIME", alert)
			p.Alertor = MakeAlertor(AlertThresholds{
				Detector:          MakeCDCylinder(r, h),
				AlertingTime:      alert,
				EarlyAlertingTime: early,
				Region:            Near,
			})
		}
	}
}
