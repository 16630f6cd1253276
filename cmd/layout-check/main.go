package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/layout"
	"github.com/chayuto/panic-on-rails/store"
)

var (
	dbPath     string
	layoutName string
	filePath   string
)

func main() {
	flag.StringVar(&dbPath, "db-path", "./layouts.db", "path to layout database")
	flag.StringVar(&layoutName, "layout", "", "named layout to check (empty: list names)")
	flag.StringVar(&filePath, "file", "", "check a layout document from a JSON file instead")
	flag.Parse()

	net := layout.New(config.Default())
	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("read %s: %s", filePath, err)
		}
		if err := net.UnmarshalDocument(data); err != nil {
			log.Fatalf("%s: %s", filePath, err)
		}
	case layoutName != "":
		st, err := store.Open(dbPath)
		if err != nil {
			log.Fatalf("open %s: %s", dbPath, err)
		}
		defer st.Close()
		doc, err := st.Load(layoutName)
		if err != nil {
			log.Fatalf("load %s: %s", layoutName, err)
		}
		if err := net.LoadDocument(doc); err != nil {
			log.Fatalf("%s: %s", layoutName, err)
		}
	default:
		st, err := store.Open(dbPath)
		if err != nil {
			log.Fatalf("open %s: %s", dbPath, err)
		}
		defer st.Close()
		names, err := st.List()
		if err != nil {
			log.Fatalf("list: %s", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	switches := 0
	for _, n := range net.Nodes {
		if n.Kind == layout.NodeSwitch {
			switches++
		}
	}
	fmt.Printf("nodes:          %d\n", len(net.Nodes))
	fmt.Printf("edges:          %d\n", len(net.Edges))
	fmt.Printf("open endpoints: %d\n", len(net.OpenEndpoints()))
	fmt.Printf("switches:       %d\n", switches)
	fmt.Printf("total cost:     %d\n", net.TotalCost())
}
