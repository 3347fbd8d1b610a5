package game

const (
	WorldWidth  = 800.0
	WorldHeight = 800.0

	MaxSpeedPerTick = 7.0
	InputQueueSize  = 4

	MinColors        = 2
	MaxColors        = 8
	MinDucksPerColor = 2
	MaxDucksPerColor = 20
)

// Tuning holds every knob of the simulation. Distances are pixels, speeds
// are pixels per tick, times are milliseconds.
type Tuning struct {
	Width, Height float64

	MaxSpeedPerTick float64
	InputEpsilon    float64

	DuckRadius float64

	PanicRadius     float64
	PanicCooldownMs int64
	FleeMinSpeed    float64
	FleeMaxSpeed    float64
	FleeExponent    float64 // eases target flee speed with nearest player distance
	FleeAccel       float64

	StickRadius      float64
	GroupSpeedLarger float64 // chasing a strictly larger group
	GroupSpeedEqual  float64 // chasing an equal-sized group
	GroupAccel       float64
	MergeLockMs      int64

	SoloSpeed float64
	SoloAccel float64

	BorderBuffer  float64
	BorderBias    float64
	BorderDamping float64
	CollisionPass int

	DuckSpawnSpread float64
	PlayerEdgeMin   float64
	PlayerEdgeMax   float64
}

func DefaultTuning() Tuning {
	return Tuning{
		Width:  WorldWidth,
		Height: WorldHeight,

		MaxSpeedPerTick: MaxSpeedPerTick,
		InputEpsilon:    1e-6,

		DuckRadius: 10,

		PanicRadius:     120,
		PanicCooldownMs: 600,
		FleeMinSpeed:    1.2,
		FleeMaxSpeed:    4.5,
		FleeExponent:    1.6,
		FleeAccel:       0.35,

		StickRadius:      26,
		GroupSpeedLarger: 1.4,
		GroupSpeedEqual:  0.8,
		GroupAccel:       0.08,
		MergeLockMs:      800,

		SoloSpeed: 1.1,
		SoloAccel: 0.06,

		BorderBuffer:  40,
		BorderBias:    0.08,
		BorderDamping: 0.5,
		CollisionPass: 2,

		DuckSpawnSpread: 140,
		PlayerEdgeMin:   80,
		PlayerEdgeMax:   100,
	}
}
