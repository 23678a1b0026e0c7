//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"

	"github.com/poi-cluster-service/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	zoom := flag.Float64("zoom", 8, "Zoom level")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Три кофейни в Эшампле и ресторан в Жироне
	points := []domain.Point{
		{Coordinates: orb.Point{2.1700, 41.3800}, Name: "Cafe Uno", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{2.1712, 41.3806}, Name: "Cafe Dos", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{2.1721, 41.3795}, Name: "Cafe Tres", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{3.2000, 41.9000}, Name: "Can Roca", Category: domain.CategoryRestaurant},
	}

	taskID := uuid.NewString()
	req, err := domain.NewVisibilityRequest(taskID, points, *zoom)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}

	// Читаем ответы начиная с текущего конца стрима
	since := "$"
	if last, err := client.XRevRangeN(ctx, domain.StreamVisibilityResponse, "+", "-", 1).Result(); err == nil && len(last) > 0 {
		since = last[0].ID
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamVisibilityRequest,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish request: %v", err)
	}

	fmt.Printf("Request published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamVisibilityRequest)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Task ID: %s\n", taskID)
	fmt.Printf("   Zoom: %.1f, points: %d\n", *zoom, len(points))
	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamVisibilityResponse)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamVisibilityResponse, since},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("Failed to read responses: %v", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				since = msg.ID
				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var resp domain.VisibilityResponse
				if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.TaskID != taskID {
					continue
				}
				pretty, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Printf("\nResponse received:\n%s\n", pretty)
				return
			}
		}
	}
	fmt.Println("Timeout waiting for response")
}
