package domain

// GameResourceID identifies the mini-game in every resource-scoped request.
const GameResourceID = 2056

// GameStart is the opaque game-start response body, handed untouched to the scorer.
type GameStart []byte

type GameResult struct {
	Score   int
	Payload string
}

func (r GameResult) Playable() bool {
	return r.Payload != ""
}

// GameRound lives for one iteration of the game loop.
type GameRound struct {
	Start  GameStart
	Result *GameResult
}
