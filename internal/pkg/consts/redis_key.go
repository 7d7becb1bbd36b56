package consts

const (
	IMConversationKey = "im:conversation:"
	TokenRevokedKey   = "token:revoked:"
)

const (
	DefaultChangeChannel = "im:changes:messages"
)
