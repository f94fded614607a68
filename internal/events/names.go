package events

// Name имя события на проводе. Клиентские и серверные события названы симметрично.
type Name string

// Клиент -> сервер (и обратно, с теми же именами)
const (
	TaskCreatedName      Name = "task:created"
	TaskUpdatedName      Name = "task:updated"
	TaskMovedName        Name = "task:moved"
	TaskDeletedName      Name = "task:deleted"
	CommentAddedName     Name = "comment:added"
	ProjectJoinedName    Name = "project:joined"
	ProjectLeftName      Name = "project:left"
	UserOnlineName       Name = "user:online"
	UserTypingName       Name = "user:typing"
	NotificationReadName Name = "notification:read"
)

// Только сервер -> клиент
const (
	TaskAssignedName      Name = "task:assigned"
	CommentReceivedName   Name = "comment:received"
	UserJoinedProjectName Name = "user:joined_project"
	UserLeftProjectName   Name = "user:left_project"
	UserOfflineName       Name = "user:offline"
	NotificationNewName   Name = "notification:new"
)

// Служебные
const (
	AuthName  Name = "auth"
	PingName  Name = "ping"
	PongName  Name = "pong"
	ErrorName Name = "error"
)
