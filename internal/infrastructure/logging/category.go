package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	WebSocket       Category = "WebSocket"
	Realtime        Category = "Realtime"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup      SubCategory = "Startup"
	Shutdown     SubCategory = "Shutdown"
	RateLimiting SubCategory = "RateLimiting"

	// Realtime
	Dispatch  SubCategory = "Dispatch"
	Sessions  SubCategory = "Sessions"
	Streams   SubCategory = "Streams"
	Heartbeat SubCategory = "Heartbeat"
	Overflow  SubCategory = "Overflow"

	// RabbitMQ
	Publish SubCategory = "Publish"
	Consume SubCategory = "Consume"

	// RequestResponse
	Api SubCategory = "Api"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	SessionID    ExtraKey = "SessionId"
	RoomID       ExtraKey = "RoomId"
	TopicKey     ExtraKey = "Topic"
	StreamID     ExtraKey = "StreamId"
	CameraID     ExtraKey = "CameraId"
	Sequence     ExtraKey = "Sequence"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	Path         ExtraKey = "Path"
	StatusCode   ExtraKey = "StatusCode"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
