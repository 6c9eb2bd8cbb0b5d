// Command inspect dumps the chat database as a table, read-only. Useful to
// check what the server actually persisted without going through the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"message-room/domain"
	"message-room/repositories"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Username", "At", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				row, err := decodeRow(*prefix, key, v)
				if err != nil {
					// Keep walking: one bad value should not hide the rest.
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func decodeRow(prefix, key string, value []byte) ([]string, error) {
	switch prefix {
	case "user:":
		user, err := repositories.DecodeUserValue(value)
		if err != nil {
			return nil, err
		}
		return []string{
			key,
			strconv.FormatUint(user.ID, 10),
			user.Username,
			user.JoinedAt.Format(domain.WireTimestamp),
			"",
		}, nil
	default:
		message, err := repositories.DecodeMessageValue(value)
		if err != nil {
			return nil, err
		}
		return []string{
			key,
			strconv.FormatUint(message.ID, 10),
			message.Username,
			message.At.Format(domain.WireTimestamp),
			message.Content,
		}, nil
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
