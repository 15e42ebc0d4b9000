// pkg/core/constants.go
package core

// Map bounds.
const (
	MapHeightMin = 20
	MapHeightMax = 50
	MapWidthMin  = 20
	MapWidthMax  = 50

	// MapCoordinateMin and MapCoordinateMax bound every x or y coordinate.
	MapCoordinateMin int32 = -10000
	MapCoordinateMax int32 = 10000

	// Starting karbonite deposit per square on Earth.
	MapKarboniteMin uint32 = 0
	MapKarboniteMax uint32 = 50
)

// Weather and orbit bounds.
const (
	// Rounds between asteroid strikes.
	AsteroidRoundMin uint32 = 2
	AsteroidRoundMax uint32 = 20

	// Karbonite carried by a single asteroid.
	AsteroidKarbMin uint32 = 20
	AsteroidKarbMax uint32 = 200

	// Rocket flight time, in rounds, depending on the orbit.
	OrbitFlightMin int32 = 100
	OrbitFlightMax int32 = 400
)

// Unit constants.
const (
	// HeatLossPerRound is the heat each robot dissipates per round.
	HeatLossPerRound uint32 = 10

	// RocketBlastDamage is dealt to units adjacent to a landing rocket.
	RocketBlastDamage uint32 = 50
)

// Game parameters.
const (
	// RoundLimit is the round at which the game is forced to end.
	RoundLimit uint32 = 1000

	// CommunicationArrayLength is the size of the team array, in bytes.
	CommunicationArrayLength = 100

	// CommunicationDelay is the delay between planets, in rounds.
	CommunicationDelay = 200
)
