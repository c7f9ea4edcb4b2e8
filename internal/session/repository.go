package session

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"gameroom/internal/database"
	"gameroom/internal/model"
)

var ErrNotFound = errors.New("not found")

// Repository is the lobby's room directory.
type Repository interface {
	PutRoom(ctx context.Context, room model.RoomItem) error
	GetRoom(ctx context.Context, roomID string) (model.RoomItem, error)
	DeleteRoom(ctx context.Context, roomID string) error
	ListRooms(ctx context.Context, limit int) ([]model.RoomItem, error)
}

type dynamoRepository struct {
	db    *database.Database
	table string
}

// NewDynamoRepository stores room records in DynamoDB.
func NewDynamoRepository(db *database.Database, table string) Repository {
	if table == "" {
		table = model.RoomsTable
	}
	return &dynamoRepository{db: db, table: table}
}

func (r *dynamoRepository) roomKey(roomID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"roomId": database.AttrString(roomID),
	}
}

func (r *dynamoRepository) PutRoom(ctx context.Context, room model.RoomItem) error {
	return r.db.Client.PutItem(ctx, r.table, room)
}

func (r *dynamoRepository) GetRoom(ctx context.Context, roomID string) (model.RoomItem, error) {
	var room model.RoomItem
	err := r.db.Client.GetItem(ctx, r.table, r.roomKey(roomID), &room)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.RoomItem{}, ErrNotFound
		}
		return model.RoomItem{}, err
	}
	return room, nil
}

func (r *dynamoRepository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.db.Client.DeleteItem(ctx, r.table, r.roomKey(roomID))
}

func (r *dynamoRepository) ListRooms(ctx context.Context, limit int) ([]model.RoomItem, error) {
	var rooms []model.RoomItem
	if err := r.db.Client.ScanItems(ctx, r.table, int32(limit), &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

type memoryRepository struct {
	mu    sync.Mutex
	rooms map[string]model.RoomItem
}

// NewMemoryRepository keeps the room directory in process memory. Used
// when no DynamoDB configuration is present, and by tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		rooms: make(map[string]model.RoomItem),
	}
}

func (m *memoryRepository) PutRoom(ctx context.Context, room model.RoomItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomID] = room
	return nil
}

func (m *memoryRepository) GetRoom(ctx context.Context, roomID string) (model.RoomItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return model.RoomItem{}, ErrNotFound
	}
	return room, nil
}

func (m *memoryRepository) DeleteRoom(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *memoryRepository) ListRooms(ctx context.Context, limit int) ([]model.RoomItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]model.RoomItem, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
		if limit > 0 && len(rooms) == limit {
			break
		}
	}
	return rooms, nil
}
