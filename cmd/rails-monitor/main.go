package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/r3labs/sse/v2"

	"github.com/chayuto/panic-on-rails/sim"
)

var server string

func main() {
	flag.StringVar(&server, "server", "http://127.0.0.1:8080/sse", "simulator SSE endpoint")
	flag.Parse()

	err := termui.Init()
	if err != nil {
		log.Fatalf("termui init: %s", err)
	}
	defer termui.Close()

	trains := widgets.NewTable()
	trains.Title = "trains"
	trains.Rows = [][]string{{"id", "edge", "dist", "dir", "speed", "state"}}
	trains.SetRect(0, 0, 80, 12)

	sensors := widgets.NewParagraph()
	sensors.Title = "sensors"
	sensors.Text = "waiting for snapshot..."
	sensors.SetRect(0, 12, 80, 16)
	termui.Render(trains, sensors)

	snaps := make(chan sim.Snapshot)
	go func() {
		client := sse.NewClient(server)
		err := client.Subscribe("snapshot", func(msg *sse.Event) {
			var snap sim.Snapshot
			if err := json.Unmarshal(msg.Data, &snap); err != nil {
				return
			}
			snaps <- snap
		})
		if err != nil {
			termui.Close()
			log.Fatalf("subscribe %s: %s", server, err)
		}
	}()

	events := termui.PollEvents()
	for {
		select {
		case e := <-events:
			if e.ID == "q" || e.ID == "<C-c>" {
				return
			}
		case snap := <-snaps:
			rows := [][]string{{"id", "edge", "dist", "dir", "speed", "state"}}
			for _, t := range snap.Trains {
				state := "running"
				if t.Crashed {
					state = "CRASHED"
				}
				rows = append(rows, []string{
					short(string(t.ID)),
					short(string(t.EdgeID)),
					fmt.Sprintf("%.1f", t.Dist),
					fmt.Sprintf("%+d", t.Dir),
					fmt.Sprintf("%.1f", t.Speed),
					state,
				})
			}
			trains.Rows = rows
			text := ""
			for id, on := range snap.Sensors {
				mark := "off"
				if on {
					mark = "ON"
				}
				text += fmt.Sprintf("%s=%s ", short(string(id)), mark)
			}
			if text != "" {
				sensors.Text = text
			}
			termui.Render(trains, sensors)
		}
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
