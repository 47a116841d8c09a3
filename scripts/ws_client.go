// Package main runs a demo WebSocket client for run events.
//
//	go run ./scripts -i instances/50/test/instance1_50.txt -algo grasp
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type runEvent struct {
	Type  string         `json:"type"`
	RunID string         `json:"runId"`
	Data  map[string]any `json:"data"`
}

func main() {
	input := flag.String("i", "", "instance file")
	algo := flag.String("algo", "grasp", "algorithm")
	seconds := flag.Float64("t", 5, "time limit in seconds")
	flag.Parse()
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	text, err := os.ReadFile(*input)
	if err != nil {
		log.Fatal(err)
	}
	body, _ := json.Marshal(map[string]any{
		"instanceText": string(text),
		"async":        true,
		"params":       map[string]any{"algorithm": *algo, "maxSeconds": *seconds},
	})
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("solve: %s", resp.Status)
	}
	var run struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		log.Fatal(err)
	}
	log.Printf("Run ID: %s", run.ID)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/runs/" + run.ID + "/events"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	deadline := time.Now().Add(time.Duration(*seconds*float64(time.Second)) + 30*time.Second)
	_ = c.SetReadDeadline(deadline)
	for {
		var evt runEvent
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s: %v", evt.Type, evt.Data)
		if evt.Type == "run.finished" {
			return
		}
	}
}
