package dto

// PlaceBetRequest: candidatos por posição; cada combinação gerada vira uma aposta de unit_stake
type PlaceBetRequest struct {
	UserID     string  `json:"userId"`
	Type       string  `json:"type"`       // WIN, PLACE, QUINELLA, ...
	Candidates [][]int `json:"candidates"` // um conjunto por posição
	UnitStake  int64   `json:"unit_stake"`
}

type PreviewRequest struct {
	Type       string  `json:"type"`
	Candidates [][]int `json:"candidates"`
}
