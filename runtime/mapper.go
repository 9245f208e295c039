package runtime

import (
	"superchat/domain/chat"
	"superchat/repositories"
)

func toDiskMessage(message chat.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:        message.ID,
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
		User: repositories.DiskAuthor{
			UID:         message.Author.UID,
			DisplayName: message.Author.DisplayName,
			PhotoURL:    message.Author.PhotoURL,
		},
	}
}

func fromDiskMessage(message repositories.DiskMessage, _ int) chat.Message {
	return chat.Message{
		ID:        message.ID,
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
		Author: chat.Author{
			UID:         message.User.UID,
			DisplayName: message.User.DisplayName,
			PhotoURL:    message.User.PhotoURL,
		},
	}
}
