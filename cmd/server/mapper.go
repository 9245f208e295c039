package main

import (
	"fmt"
	"strings"
	"superchat/repositories"
	"time"

	"github.com/mama165/sdk-go/database"
)

// MessageMapper renders stored records in the debug inspector.
func MessageMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if !strings.HasPrefix(key, string(repositories.MessagePrefix())) {
		row.Type = "ACCOUNT"
		row.Detail = "(hidden)"
		return row
	}

	message, err := repositories.DecodeMessage(val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = "MESSAGE"
	row.Detail = fmt.Sprintf("%s [%s] %s (%s): %s",
		message.CreatedAt.Format(time.RFC3339Nano), message.ID,
		message.User.DisplayName, message.User.UID, message.Text)
	return row
}
