package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"superchat/repositories"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	limit := flag.Int("limit", 0, "Only print the last N messages (0 = all)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	rows, err := readMessages(db)
	if err != nil {
		log.Fatal("Error while reading messages: ", err)
	}
	if *limit > 0 && len(rows) > *limit {
		rows = rows[len(rows)-*limit:]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Created At", "ID", "Author", "UID", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
	fmt.Printf("\n%d message(s)\n", len(rows))
}

// readMessages walks the collection in key order, which is creation order.
func readMessages(db *badger.DB) ([][]string, error) {
	var rows [][]string
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := repositories.MessagePrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				message, err := repositories.DecodeMessage(v)
				if err != nil {
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				rows = append(rows, []string{
					message.CreatedAt.Format(time.DateTime),
					message.ID.String()[:8],
					message.User.DisplayName,
					message.User.UID,
					message.Text,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}
