package protocol

// ProtocolVersion is bumped whenever the chat command set changes incompatibly.
const ProtocolVersion = 1

// Chat command names, without the leading slash.
const (
	CommandGoals  = "goals"
	CommandCreate = "create"
	CommandCancel = "cancel"
	CommandHelp   = "help"
)

// Command describes a chat command shown to users.
type Command struct {
	Name        string
	Description string
}

// Slash returns the command as typed in a chat, e.g. "/goals".
func (c Command) Slash() string { return "/" + c.Name }

// Commands returns the commands in menu order.
func Commands() []Command {
	return []Command{
		{Name: CommandGoals, Description: "List your goals"},
		{Name: CommandCreate, Description: "Create a goal"},
		{Name: CommandCancel, Description: "Cancel the current action"},
		{Name: CommandHelp, Description: "Show available commands"},
	}
}
