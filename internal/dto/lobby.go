package dto

type LobbyResponse struct {
	RoomID string `json:"roomId"`
}

type RoomSummary struct {
	RoomID  string `json:"roomId"`
	Players int    `json:"players"`
}
