package env

import (
	"fmt"
	"os"
)

const (
	AWSRegion        = "AWS_REGION"
	AWSID            = "AWS_ID"
	AWSSecret        = "AWS_SECRET"
	AWSToken         = "AWS_TOKEN"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
	RoomsTable       = "ROOMS_TABLE"
	UserSecretKey    = "USER_SECRET"
	AppID            = "ROOM_APP_ID"
	Port             = "ROOM_PORT"
	PublicHost       = "ROOM_PUBLIC_HOST"
	RedisURL         = "ROOM_REDIS_URL"
	RedisPass        = "ROOM_REDIS_PASS"
	MaxPlayers       = "ROOM_MAX_PLAYERS"
)

const DefaultPort = "4000"

// Validate checks the variables the server cannot start without. Called
// explicitly from main rather than an init hook so test binaries do not
// need a full environment.
func Validate() error {
	required := []string{
		AppID,
		UserSecretKey,
	}
	for _, key := range required {
		if os.Getenv(key) == "" {
			return fmt.Errorf("env: required environment variable not set: %s", key)
		}
	}
	return nil
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
