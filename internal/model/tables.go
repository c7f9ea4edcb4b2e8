package model

const RoomsTable = "Rooms"

// RoomItem is the lobby directory record for one room. It tracks who
// asked for the room and where its websocket endpoint lives; live
// membership stays in the room registry, never here.
type RoomItem struct {
	RoomID    string `dynamodbav:"roomId"`
	AppID     string `dynamodbav:"appId"`
	CreatedBy string `dynamodbav:"createdBy"`
	Host      string `dynamodbav:"host"`
	Port      string `dynamodbav:"port"`
	CreatedAt string `dynamodbav:"createdAt"`
}
