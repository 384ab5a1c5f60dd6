package netmsg

// Connection is the external collaborator contract (spec §1): low-level
// UDP framing, reliability and encryption live behind it. The core only
// depends on this interface, never on a concrete transport.
type Connection interface {
	// Send enqueues an unreliable datagram payload.
	Send(buffer []byte)
	// SendReliableMessage enqueues a reliable message payload.
	SendReliableMessage(payload []byte)
	// ServerTick returns the connection's server-synchronized monotonic
	// tick clock value.
	ServerTick() uint32
	// Settings returns the current ArenaSettings blob, opaque to this
	// package (individual components decode the fields they need).
	Settings() ArenaSettings
}

// ArenaSettings is the subset of server-provided arena configuration the
// core consults directly; it mirrors ship/weapon/prize tables the
// Connection collaborator parses from the server's settings packet. Only
// the fields the core's formulas need are modeled here — everything else
// is treated as opaque configuration the behavior layer may read on its
// own.
type ArenaSettings struct {
	BounceFactor         int32
	BombDamageLevel      int32
	BulletDamageLevel    int32
	BulletDamageUpgrade  int32
	BurstDamageLevel     int32
	EBombDamagePercent   int32
	EBombShutdownTime    int32
	BBombDamagePercent   int32
	BombExplodePixels    int32
	ShrapnelDamagePercent int32
	InactiveShrapDamage  int32
	ExactDamage           bool
	GravityBombs          bool
	ShrapnelRandom        bool
	Gravity               int32
	MultiFireAngle        int32
	ProximityDistance     int32
	BombExplodeDelay      int32
	RepelDistance         int32
	RepelSpeed            int32
	AliveTime             map[int]int32 // weapon type*2+alternate -> lifetime ticks
	BulletSpeed           int32
	BombSpeed             int32
	SendPositionDelay     int32
	DoorDelay             int32
	DoorMode              int32
	MaxMines              int32
	TeamMaxMines          int32
	AfterburnerEnergy     int32
	MaximumThrust         int32
	MaximumSpeed          int32
	RocketThrust          int32
	RocketSpeed           int32
	RocketTime            int32
	TurretThrustPenalty   int32
	TurretSpeedPenalty    int32
	TurretLimit           int32
	AttachBounty          int32
	AntiwarpSettleDelay   int32
	GravityTopSpeed       int32
	BombThrust            int32
	DisableFastShooting   bool
	BombSafety            bool
	PrizeWeights          []int32
	PrizeNegativeFactor   int32
	MultiPrizeCount       int32
	InitialBounty         int32
	FloodLimit            int32
	SoccerBallProximity   int32
	SoccerBallSpeed       int32
	SoccerBallFriction    int32
	SoccerBallThrowTimer  int32
	PassDelay             int32
	SoccerMode            int32
	AllowGuns             bool
	AllowBombs            bool

	// Ship upgrade table. The server's settings carry these per ship type;
	// the core flattens them to the self ship's values, re-filled on every
	// ship change.
	InitialEnergy         int32
	MaximumEnergy         int32
	UpgradeEnergy         int32
	InitialRecharge       int32
	MaximumRecharge       int32
	UpgradeRecharge       int32
	InitialRotation       int32
	MaximumRotation       int32
	UpgradeRotation       int32
	InitialThrust         int32
	UpgradeThrust         int32
	InitialSpeed          int32
	UpgradeSpeed          int32
	InitialGuns           int32
	MaxGuns               int32
	InitialBombs          int32
	MaxBombs              int32
	ShrapnelRate          int32
	ShrapnelMax           int32
	InitialRepel          int32
	RepelMax              int32
	InitialBurst          int32
	BurstMax              int32
	InitialDecoy          int32
	DecoyMax              int32
	InitialThor           int32
	ThorMax               int32
	InitialBrick          int32
	BrickMax              int32
	InitialRocket         int32
	RocketMax             int32
	InitialPortal         int32
	PortalMax             int32
	StealthStatus         int32
	CloakStatus           int32
	XRadarStatus          int32
	AntiWarpStatus        int32
	StealthEnergy         int32
	CloakEnergy           int32
	XRadarEnergy          int32
	AntiWarpEnergy        int32
	BulletFireDelay       int32
	BulletFireEnergy      int32
	MultiFireDelay        int32
	MultiFireEnergy       int32
	BombFireDelay         int32
	BombFireEnergy        int32
	BombFireEnergyUpgrade int32
	LandmineFireEnergy    int32
	LandmineFireEnergyUpgrade int32
	EmpBomb               bool
	SuperTime             int32
	ShieldsTime           int32
	EngineShutdownTime    int32
	WarpPointDelay        int32
	AntiWarpPixels        int32
	SpawnSettings         []SpawnSetting
}

// SpawnSetting is one per-frequency spawn disk; Radius 0 means "use the
// zone default region" (spec §4.4).
type SpawnSetting struct {
	X, Y   int32
	Radius int32
}
