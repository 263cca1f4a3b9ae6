package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

type roomsResponse struct {
	Rooms []struct {
		RoomID      string    `json:"roomId"`
		UsersInRoom int       `json:"usersInRoom"`
		Messages    int       `json:"messages"`
		CreatedAt   time.Time `json:"createdAt"`
	} `json:"rooms"`
	TotalRooms    int `json:"totalRooms"`
	TotalSessions int `json:"totalSessions"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:5000", "Base URL of the chat server")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*baseURL + "/api/v1/rooms")
	if err != nil {
		log.Fatal("Error while querying server: ", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unexpected status: %s", resp.Status)
	}

	var body roomsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Fatal("Error while decoding response: ", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Users", "Messages", "Age"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range body.Rooms {
		table.Append([]string{
			room.RoomID,
			fmt.Sprintf("%d/2", room.UsersInRoom),
			strconv.Itoa(room.Messages),
			time.Since(room.CreatedAt).Round(time.Second).String(),
		})
	}
	table.Render()
	fmt.Printf("\n%d room(s), %d participant(s)\n", body.TotalRooms, body.TotalSessions)
}
