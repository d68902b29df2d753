package bot

import "github.com/bwmarrin/discordgo"

const (
	commandSplit  = "split"
	commandCancel = "cancel"
	commandHelp   = "help"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandSplit,
			Description: "Start splitting a bill in this channel",
		},
		{
			Name:        commandCancel,
			Description: "Cancel the bill split in progress",
		},
		{
			Name:        commandHelp,
			Description: "How to use ShareTab",
		},
	}
}
