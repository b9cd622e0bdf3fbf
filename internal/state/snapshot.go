package state

// Snapshot is a detached copy of a GameState safe to hand to other
// goroutines and encode.
type Snapshot struct {
	ID              string         `json:"id"`
	Players         []Player       `json:"players"`
	Towers          []Tower        `json:"towers"`
	Enemies         []Enemy        `json:"enemies"`
	Round           int            `json:"round"`
	Lives           int            `json:"lives"`
	PlayerMoney     map[string]int `json:"playerMoney"`
	Active          bool           `json:"active"`
	RoundInProgress bool           `json:"roundInProgress"`
}

// Snapshot copies the state, including nested effect slices.
func (gs *GameState) Snapshot(roomID string) Snapshot {
	snap := Snapshot{
		ID:              roomID,
		Players:         append([]Player(nil), gs.Players...),
		Towers:          make([]Tower, 0, len(gs.Towers)),
		Enemies:         make([]Enemy, 0, len(gs.Enemies)),
		Round:           gs.Round,
		Lives:           gs.Lives,
		PlayerMoney:     make(map[string]int, len(gs.Currency)),
		Active:          gs.Active,
		RoundInProgress: gs.RoundInProgress,
	}
	for _, t := range gs.Towers {
		snap.Towers = append(snap.Towers, *t)
	}
	for _, e := range gs.Enemies {
		copied := *e
		copied.Effects = append([]Effect(nil), e.Effects...)
		snap.Enemies = append(snap.Enemies, copied)
	}
	for id, amount := range gs.Currency {
		snap.PlayerMoney[id] = amount
	}
	return snap
}

// Tower looks up a tower in the snapshot.
func (s Snapshot) Tower(id string) (Tower, bool) {
	for _, t := range s.Towers {
		if t.ID == id {
			return t, true
		}
	}
	return Tower{}, false
}

// Player looks up a participant in the snapshot.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}
